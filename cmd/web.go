package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tev2-toolkit/mrgen/internal/server"
	"github.com/tev2-toolkit/mrgen/internal/utils"
	"github.com/tev2-toolkit/mrgen/pkg/storage"
)

// webCmd represents the web command
var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the mrgen web interface",
	Long:  `Start a web server that generates MRGs on request and exposes the run history.`,
	Run: func(cmd *cobra.Command, args []string) {
		allowLocal, _ := cmd.Flags().GetBool("allow-local")
		if allowLocal {
			utils.Log.Warn("Local scope directories are readable by every client of the web server")
		}
		gen, err := newGenerator(cmd, "", "", allowLocal)
		if err != nil {
			log.Fatalf("Failed to configure generator: %v", err)
		}

		var db *storage.DB
		if record, _ := cmd.Flags().GetBool("db"); record || dbPathFlag(cmd) != "" {
			db, err = openDB(dbPathFlag(cmd))
			if err != nil {
				log.Fatalf("Failed to open DB: %v", err)
			}
			defer db.Close()
		}

		// Auth
		user, _ := cmd.Flags().GetString("username")
		pass, _ := cmd.Flags().GetString("password")
		addr, _ := cmd.Flags().GetString("bind")

		srv := server.New(gen, db, user, pass)
		srv.Identity = viper.GetString("term.identity")
		if err := srv.Start(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(webCmd)

	webCmd.Flags().StringP("bind", "b", ":9999", "Address to bind the server to")
	webCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional)")
	webCmd.Flags().StringP("password", "p", "", "Password for basic auth (optional)")
	webCmd.Flags().Bool("allow-local", false, "Accept scope directories on the server's filesystem (default: remote repositories only)")
	webCmd.Flags().Bool("db", false, "Record generated MRGs in the run history database")
	webCmd.Flags().String("dbpath", "", "Path to SQLite DB file (implies --db)")
}
