package main

import (
	"context"
	"fmt"

	"github.com/artpar/zacre/config"
	"github.com/artpar/zacre/core/formatter"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write site configuration",
	Long: `Manage the site configuration stored in the database, such as
website.name and website.theme.

Examples:
  zacre config list
  zacre config get website.name
  zacre config set website.theme dark
  zacre config validate`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List site configuration",
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigList(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	params, err := app.Parameters.ListConfig(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list config: %w", err)
	}
	list := formatter.List{Kind: "config values", Columns: []string{"key", "value", "updated"}}
	for _, p := range params {
		list.Records = append(list.Records, map[string]any{
			"key":     p.Key,
			"value":   p.Value,
			"updated": p.UpdatedAt,
		})
	}
	return printList(list)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	v, err := app.Parameters.GetConfig(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("config %s: %w", args[0], err)
	}
	fmt.Println(v)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Parameters.UpdateConfig(context.Background(), args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	fmt.Printf("%s %s = %s\n", checkMark, args[0], args[1])
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		fmt.Printf("%s Configuration invalid: %v\n", crossMark, err)
		return err
	}
	fmt.Printf("%s Configuration valid\n", checkMark)
	fmt.Printf("  Listen:   %s\n", cfg.Server.Addr())
	fmt.Printf("  Database: %s\n", cfg.Database.DSN)
	fmt.Printf("  Cache:    %s\n", cfg.Cache.Driver)
	fmt.Printf("  Assets:   %s (%s)\n", cfg.Assets.PublicDir, cfg.Assets.Environment)
	return nil
}
