package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tev2-toolkit/mrgen/internal/utils"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the run history database",
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := utils.GetAbsDBPath(dbPathFlag(cmd))
		if err != nil {
			return err
		}
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, dbPath, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, dbPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the recorded generation runs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(dbPathFlag(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(context.Background())
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "SCOPETAG\tRUNS\tVERSIONS\tENTRIES\t")

		var totalRuns int
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t\n", s.ScopeTag, s.RunCount, s.VersionCount, s.EntryCount)
			totalRuns += s.RunCount
		}

		fmt.Fprintln(w, " \t \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t \t \t\n", totalRuns)

		w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(statsCmd)
	dbCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: db.path or ~/.config/mrgen/mrgen.sqlite)")
}
