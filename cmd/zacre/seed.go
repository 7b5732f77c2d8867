package main

import (
	"context"
	"fmt"

	"github.com/artpar/zacre/bootstrap"
	"github.com/spf13/cobra"
)

var seedAdminPassword string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the admin user, site config and default pages",
	Long: `Seed the database with default content.

Seeding is idempotent: existing users, config keys, layouts and pages
are left untouched.

Examples:
  zacre seed
  zacre seed --admin-password=changeme`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "password for "+bootstrap.AdminEmail+" (default \""+bootstrap.DefaultAdminPassword+"\")")
}

func runSeed(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Seed(context.Background(), seedAdminPassword)
	if err != nil {
		return err
	}

	if res.AdminCreated {
		fmt.Printf("%s Created admin user: %s\n", checkMark, bootstrap.AdminEmail)
	} else {
		fmt.Printf("  Admin user exists: %s\n", bootstrap.AdminEmail)
	}
	fmt.Printf("%s Config keys added: %d\n", checkMark, res.ConfigKeys)
	fmt.Printf("%s Pages added:       %d\n", checkMark, res.Pages)
	return nil
}
