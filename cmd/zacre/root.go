package main

import (
	"fmt"
	"os"

	"github.com/artpar/zacre/adapters/sqlite"
	"github.com/artpar/zacre/bootstrap"
	"github.com/artpar/zacre/config"
	"github.com/artpar/zacre/core/formatter"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile      string
	outputFormat string

	formatters = formatter.NewRegistry()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "zacre",
	Short: "Modular site builder",
	Long: `Zacre serves pages composed of modules arranged on a layout grid.

Quick start:
  zacre seed        # Create the admin user and default pages
  zacre serve       # Start the web server

Management:
  zacre pages       # List pages
  zacre layouts     # List layouts
  zacre users       # Manage users
  zacre config      # Read and write site configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "zacre.yaml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")
}

// printList writes list in the selected output format.
func printList(list formatter.List) error {
	f, err := formatters.Get(outputFormat)
	if err != nil {
		return err
	}
	return f.FormatList(os.Stdout, list, formatter.FormatOptions{MaxWidth: 60})
}

// openApp builds the services without the HTTP server.
func openApp() (*bootstrap.App, error) {
	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		Version:    version,
		LogOutput:  os.Stderr,
		SkipServer: true,
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing: %w", err)
	}
	return app, nil
}

// openDatabase opens the configured database without running migrations.
func openDatabase() (*sqlite.DB, string, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, "", fmt.Errorf("error loading config: %w", err)
	}
	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	return db, cfg.Database.DSN, nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
