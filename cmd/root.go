package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tev2-toolkit/mrgen/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	                                
	 _ __ ___  _ __ __ _  ___ _ __  
	| '_ ` + "`" + ` _ \| '__/ _` + "`" + ` |/ _ \ '_ \ 
	| | | | | | | | (_| |  __/ | | |
	|_| |_| |_|_|  \__, |\___|_| |_|
	               |___/            
`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mrgen",
	Short: "Generates Machine Readable Glossaries from curated term files.",
	Long: LOGO + `mrgen reads a scope's SAF, resolves the term selection criteria of one of its
versions and writes the resulting Machine Readable Glossary (MRG).

Terms come from the scope's own curated directory and from the MRGs of the
external scopes it references.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mrgen.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".mrgen")
		viper.SetConfigType("yaml")
	}

	// MRGEN_GITHUB_TOKEN overrides github.token
	viper.SetEnvPrefix("mrgen")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("github.token", "")
	viper.SetDefault("github.user", "")
	viper.SetDefault("github.api", "https://api.github.com")
	viper.SetDefault("github.retries", 3)
	viper.SetDefault("github.timeout", "30s")
	viper.SetDefault("term.identity", "termid")
	viper.SetDefault("term.pattern", "**/*.md")
	viper.SetDefault("generate.concurrency", 4)
	viper.SetDefault("db.path", "")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.mrgen.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if err := utils.SetLogLevel(levelString); err != nil {
		utils.Log.Warn(err)
	}
}
