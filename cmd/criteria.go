package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tev2-toolkit/mrgen/pkg/criteria"
)

// criteriaCmd represents the criteria command
var criteriaCmd = &cobra.Command{
	Use:   "criteria <expr>...",
	Short: "Parse term selection criteria and print them in canonical form",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		local, _ := cmd.Flags().GetString("scope")

		directives, errs := criteria.ParseAll(args)
		for _, d := range directives {
			action := "add"
			if d.Remove {
				action = "remove"
			}
			version := d.VersionTag
			if version == "" {
				version = "-"
			}
			fmt.Printf("%-6s  %-20s  scope=%s  version=%s\n", action, d.Filter().String(), d.Target(local), version)
		}
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, err)
		}
		if len(errs) > 0 {
			return fmt.Errorf("%d of %d expressions are invalid", len(errs), len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(criteriaCmd)
	criteriaCmd.Flags().String("scope", "local", "Scope tag used for expressions without @scopetag")
}
