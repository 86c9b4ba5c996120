package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tev2-toolkit/mrgen/pkg/filter"
	"github.com/tev2-toolkit/mrgen/pkg/generator"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <scopedir> <vsntag>",
	Short: "Print where each scope tag of a version is fetched from",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		safFilename, _ := cmd.Flags().GetString("saf")
		local, _ := cmd.Flags().GetBool("local")

		gen, err := newGenerator(cmd, "", "", true)
		if err != nil {
			return err
		}
		_, cm, warnings, err := gen.Resolve(context.Background(), generator.Request{
			ScopeDir:    args[0],
			SAFFilename: safFilename,
			VersionTag:  args[1],
			Local:       local,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "SCOPETAG\tREPO\tROOT\tCURATEDIR\tVSNTAG\tADD\tREMOVE\t")
		for _, tag := range cm.Tags() {
			fc := cm[tag]
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
				tag, orDash(fc.OwnerRepo()), orDash(fc.RootPath()), orDash(fc.CuratedDir), orDash(fc.VersionTag),
				filterList(fc.AddFilters), filterList(fc.RemoveFilters))
		}
		w.Flush()

		for _, warning := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", warning)
		}
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func filterList(filters []filter.TermFilter) string {
	if len(filters) == 0 {
		return "-"
	}
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = f.String()
	}
	return strings.Join(parts, " ")
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().String("saf", "saf.yaml", "Filename of the SAF inside <scopedir>")
	resolveCmd.Flags().Bool("local", false, "Read <scopedir> from the local filesystem")
}
