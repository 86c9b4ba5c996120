package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tev2-toolkit/mrgen/internal/utils"
	"github.com/tev2-toolkit/mrgen/pkg/generator"
	"github.com/tev2-toolkit/mrgen/pkg/model"
	"github.com/tev2-toolkit/mrgen/pkg/report"
	"github.com/tev2-toolkit/mrgen/pkg/storage"
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate <scopedir> <vsntag>",
	Short: "Generate the MRG of one version of a scope",
	Long: `Generate reads the SAF found in <scopedir>, selects the terms of version <vsntag>
from the local curated directory and from referenced external scopes, and writes
the MRG to <glossarydir>/<mrgfile>.<vsntag>.yaml.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		safFilename, _ := cmd.Flags().GetString("saf")
		local, _ := cmd.Flags().GetBool("local")
		outDir, _ := cmd.Flags().GetString("outdir")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		dedup, _ := cmd.Flags().GetString("dedup")
		record, _ := cmd.Flags().GetBool("db")
		printEntries, _ := cmd.Flags().GetBool("print")
		outputFlags, _ := cmd.Flags().GetString("output")
		delimiter, _ := cmd.Flags().GetString("delimiter")

		if printEntries {
			if err := report.ValidateFlags(outputFlags); err != nil {
				return err
			}
		}
		if dedup != "" && dedup != generator.DedupClosest {
			return fmt.Errorf("unknown dedup strategy %q", dedup)
		}

		gen, err := newGenerator(cmd, outDir, dedup, true)
		if err != nil {
			return err
		}

		started := time.Now()
		res, err := gen.Generate(context.Background(), generator.Request{
			ScopeDir:    args[0],
			SAFFilename: safFilename,
			VersionTag:  args[1],
			Local:       local,
			DryRun:      dryRun,
		})
		if err != nil {
			return err
		}

		for _, w := range res.Warnings {
			utils.Log.Debugf("warning: %s", w)
		}
		if len(res.Warnings) > 0 {
			utils.Log.Warnf("Generation finished with %d warning(s)", len(res.Warnings))
		}

		switch {
		case printEntries:
			identity := viper.GetString("term.identity")
			if err := report.PrintEntries(os.Stdout, res.MRG.Entries, outputFlags, delimiter, identity); err != nil {
				return err
			}
		case dryRun:
			if err := writeMRGYAML(os.Stdout, res.MRG); err != nil {
				return err
			}
		}

		if record || dbPathFlag(cmd) != "" {
			if err := recordRun(args[0], res, dbPathFlag(cmd), dryRun, started); err != nil {
				utils.Log.Warnf("Could not record run: %v", err)
			}
		}
		return nil
	},
}

func writeMRGYAML(w io.Writer, mrg model.MRG) error {
	out, err := model.MarshalMRG(mrg)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("writing MRG: %w", err)
	}
	return nil
}

func recordRun(scopeDir string, res *generator.Result, dbPath string, dryRun bool, started time.Time) error {
	db, err := openDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	run := storage.NewRun(scopeDir, res.MRG, viper.GetString("term.identity"), res.Warnings, res.OutputPath, dryRun, started)
	id, err := db.RecordRun(context.Background(), run)
	if err != nil {
		return err
	}
	utils.Log.Infof("Recorded run %d", id)
	return nil
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("saf", "saf.yaml", "Filename of the SAF inside <scopedir>")
	generateCmd.Flags().Bool("local", false, "Read <scopedir> from the local filesystem even if it looks like a repository URL")
	generateCmd.Flags().String("outdir", "", "Base directory for the glossary output (default: the scope directory)")
	generateCmd.Flags().Bool("dry-run", false, "Do not write the MRG, print it as YAML instead")
	generateCmd.Flags().String("dedup", "", "Entry de-duplication strategy. Available: closest")
	generateCmd.Flags().Bool("db", false, "Record the run in the run history database")
	generateCmd.Flags().String("dbpath", "", "Path to SQLite DB file (implies --db)")
	generateCmd.Flags().Bool("print", false, "Print the selected entries instead of the YAML")
	generateCmd.Flags().StringP("output", "o", report.DefaultOutputFlags, "Output flags. Supported: i (identity), t (term), s (scopetag), g (grouptags), y (termtype), l (locator), u (navurl)")
	generateCmd.Flags().StringP("delimiter", "d", " ", "Delimiter character to use for txt output format")
}
