package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tev2-toolkit/mrgen/internal/utils"
	"github.com/tev2-toolkit/mrgen/pkg/connectors"
	"github.com/tev2-toolkit/mrgen/pkg/generator"
	"github.com/tev2-toolkit/mrgen/pkg/storage"
)

// newGenerator wires a generator from the loaded configuration. Without
// allowLocal the generator has no filesystem connector and only accepts
// remote scope directories.
func newGenerator(cmd *cobra.Command, outDir, dedup string, allowLocal bool) (*generator.Generator, error) {
	proxy, _ := cmd.Flags().GetString("proxy")
	pattern := viper.GetString("term.pattern")

	if user := viper.GetString("github.user"); user != "" {
		utils.Log.Debugf("Using GitHub account %s", user)
	}
	remote, err := connectors.NewGithubConnector(connectors.GithubConfig{
		BaseURL:  viper.GetString("github.api"),
		Token:    viper.GetString("github.token"),
		RetryMax: viper.GetInt("github.retries"),
		Timeout:  viper.GetDuration("github.timeout"),
		Proxy:    proxy,
		Pattern:  pattern,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring github connector: %w", err)
	}
	var local connectors.Connector
	if allowLocal {
		lfs, err := connectors.NewLocalFSConnector(pattern)
		if err != nil {
			return nil, fmt.Errorf("configuring local connector: %w", err)
		}
		local = lfs
	}

	return generator.New(generator.Options{
		Local:       local,
		Remote:      remote,
		Identity:    viper.GetString("term.identity"),
		Concurrency: viper.GetInt("generate.concurrency"),
		Dedup:       dedup,
		OutDir:      outDir,
		Log:         utils.Log,
	}), nil
}

// openDB opens the run history database. An empty path opens the default
// database under the user's config directory.
func openDB(path string) (*storage.DB, error) {
	abs, err := utils.GetAbsDBPath(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	return storage.Open(abs)
}

// dbPathFlag returns the --dbpath flag, falling back to db.path from the config.
func dbPathFlag(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("dbpath"); p != "" {
		return p
	}
	return viper.GetString("db.path")
}
