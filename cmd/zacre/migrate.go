package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, dsn, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		fmt.Printf("%s Migration failed: %v\n", crossMark, err)
		return err
	}
	fmt.Printf("%s Database up to date: %s\n", checkMark, dsn)
	return nil
}
