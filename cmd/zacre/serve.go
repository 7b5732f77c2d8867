package main

import (
	"context"
	"fmt"
	"os"

	"github.com/artpar/zacre/bootstrap"
	"github.com/spf13/cobra"
)

var (
	serveSeed bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Zacre web server.

The server will:
  - Load configuration from zacre.yaml (or --config)
  - Or load configuration from ZACRE_* environment variables
  - Open and migrate the database
  - Load the page registry and serve pages, the API and /metrics
  - Reload logging.level, cache.config_ttl and registry.refresh_interval
    when the config file changes or on SIGHUP

Environment variables (for container deployments):
  ZACRE_DATABASE_DSN        - Database path (default: zacre.db)
  ZACRE_SERVER_PORT         - Server port (default: 8080)
  ZACRE_AUTH_JWT_SECRET     - Session signing secret
  ZACRE_CACHE_DRIVER        - Config cache: memory or redis
  ZACRE_LOG_LEVEL           - Log level: debug, info, warn, error

Examples:
  zacre serve
  zacre serve --seed
  zacre serve --config /etc/zacre/zacre.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveSeed, "seed", false, "seed default content before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgFile); err != nil {
		fmt.Println("Running with environment variables (no config file)")
	}

	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	ctx := context.Background()
	if serveSeed {
		if _, err := app.Seed(ctx, os.Getenv("ZACRE_ADMIN_PASSWORD")); err != nil {
			app.Close()
			return err
		}
	}

	// Run (blocks until shutdown)
	return app.Run(ctx)
}
