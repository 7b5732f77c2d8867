package main

import (
	"context"
	"fmt"
	"syscall"

	"github.com/artpar/zacre/adapters/sqlite"
	"github.com/artpar/zacre/core/formatter"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
	Long: `Manage accounts able to sign in.

Examples:
  zacre users list
  zacre users create --email=editor@example.com --role=admin`,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE:  runUsersList,
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user",
	RunE:  runUsersCreate,
}

var (
	userEmail    string
	userName     string
	userRole     string
	userPassword string
)

func init() {
	rootCmd.AddCommand(usersCmd)

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersCreateCmd)

	usersCreateCmd.Flags().StringVar(&userEmail, "email", "", "user email (required)")
	usersCreateCmd.Flags().StringVar(&userName, "name", "", "user name")
	usersCreateCmd.Flags().StringVar(&userRole, "role", "", "user role, e.g. admin")
	usersCreateCmd.Flags().StringVar(&userPassword, "password", "", "user password (will prompt if not provided)")
	usersCreateCmd.MarkFlagRequired("email")
}

func runUsersList(cmd *cobra.Command, args []string) error {
	db, _, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	users, err := sqlite.NewUserStore(db).List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 && outputFormat == "table" {
		fmt.Println("No users found.")
		fmt.Println()
		fmt.Println("Create a user with: zacre users create --email=admin@example.com --role=admin")
		return nil
	}

	list := formatter.List{Kind: "users", Columns: []string{"id", "email", "name", "role", "created"}}
	for _, u := range users {
		list.Records = append(list.Records, map[string]any{
			"id":      u.ID,
			"email":   u.Email,
			"name":    u.Name,
			"role":    u.Role,
			"created": u.CreatedAt,
		})
	}
	return printList(list)
}

func runUsersCreate(cmd *cobra.Command, args []string) error {
	password := userPassword
	if password == "" {
		p, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if p != confirm {
			return fmt.Errorf("passwords do not match")
		}
		password = p
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	user, err := app.Auth.CreateUser(context.Background(), userEmail, userName, userRole, password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("%s Created user: %s\n", checkMark, user.ID)
	fmt.Printf("   Email: %s\n", user.Email)
	if user.Role != "" {
		fmt.Printf("   Role:  %s\n", user.Role)
	}
	return nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Print newline after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
