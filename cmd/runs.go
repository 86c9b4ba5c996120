package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tev2-toolkit/mrgen/pkg/storage"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List recorded generation runs (default 50)",
	Long: `Without arguments, runs lists the most recent generation runs. Given a run id,
it prints the entries that were added or removed compared to the previous run
of the same scope and version.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(dbPathFlag(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}
			return printRunChanges(ctx, db, id)
		}

		scopeTag, _ := cmd.Flags().GetString("scopetag")
		versionTag, _ := cmd.Flags().GetString("vsntag")
		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := db.ListRuns(ctx, storage.ListOptions{ScopeTag: scopeTag, VersionTag: versionTag, Limit: limit})
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tSCOPETAG\tVSNTAG\tENTRIES\tWARNINGS\tOUTPUT\t")
		for _, r := range runs {
			output := r.OutputPath
			if r.DryRun {
				output = "(dry run)"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%s\t\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.ScopeTag, r.VersionTag, r.EntryCount, r.WarningCount, output)
		}
		w.Flush()
		return nil
	},
}

func printRunChanges(ctx context.Context, db *storage.DB, id int64) error {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}
	prev, err := db.PreviousRun(ctx, run)
	if err != nil {
		return fmt.Errorf("no earlier run of %s:%s to compare with: %w", run.ScopeTag, run.VersionTag, err)
	}
	changes, err := db.Changes(ctx, prev.ID, run.ID)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Printf("No changes between run %d and run %d.\n", prev.ID, run.ID)
		return nil
	}
	for _, c := range changes {
		fmt.Printf("%-7s  %s  %s  %s\n", c.ChangeType, c.Entry.ScopeTag, c.Entry.TermID, c.Entry.Locator)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: db.path or ~/.config/mrgen/mrgen.sqlite)")
	runsCmd.Flags().String("scopetag", "", "Only list runs of this scope tag")
	runsCmd.Flags().String("vsntag", "", "Only list runs of this version tag")
	runsCmd.Flags().Int("limit", 50, "Number of recent runs to show")
}
