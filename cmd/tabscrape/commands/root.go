// Package commands implements the CLI commands for tabscrape.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/tabscrape/internal/config"
	"github.com/jmylchreest/tabscrape/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tabscrape",
	Short: "Extract tables from web pages and PDF files",
	Long: `Tabscrape finds the tables in an HTML page or a PDF file and turns them
into clean rectangular tables: header row promoted, duplicate columns and
empty rows removed.

Examples:
  # Preview the tables of a page
  tabscrape url en.wikipedia.org/wiki/List_of_tallest_buildings

  # Export tables 1 and 3 of a PDF to a workbook
  tabscrape pdf report.pdf --select 1,3 --format xlsx -o report.xlsx

  # Pick tables interactively, then write CSV
  tabscrape url https://example.com/stats -i --format csv

  # Serve the HTTP API
  tabscrape serve --addr :8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.tabscrape.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().Bool("log-json", false, "write logs as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	config.Setup(viper.GetViper())

	home, _ := os.UserHomeDir()
	if err := config.ReadFile(viper.GetViper(), viper.GetString("config"), home); err != nil {
		logError("%v", err)
	}
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logError("%v", err)
	}
	return err
}

// bindFlags binds the flags of the running command to their config keys.
// Binding happens at run time because several commands share a key.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if f := flags.Lookup(flag); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}

// setup initializes logging and loads the validated configuration.
func setup() (config.Config, error) {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})
	if f := viper.ConfigFileUsed(); f != "" {
		logger.Debug("config file loaded", "path", f)
	}
	return config.Load(viper.GetViper())
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
