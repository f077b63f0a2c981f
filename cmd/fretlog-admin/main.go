// fretlog-admin is an operator tool for tasks that should not ride on the
// HTTP API: schema migrations and account creation.
package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fretlogapp/fretlog-web/internal/auth"
	"github.com/fretlogapp/fretlog-web/internal/db"
	"github.com/fretlogapp/fretlog-web/internal/validation"
)

var rootCmd = &cobra.Command{
	Use:   "fretlog-admin",
	Short: "Operator tasks for a fretlog deployment",
	Long: `fretlog-admin runs administrative tasks against the database configured
via DATABASE_URL: applying schema migrations and creating user accounts.`,
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := connect()
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.RunMigrations(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		fmt.Println("migrations applied")
		return nil
	},
}

var createUserEmail string

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user account with password login",
	Long: `Creates a user account. The password is read from stdin without echo,
or from the FRETLOG_USER_PASSWORD environment variable when set (for
non-interactive provisioning).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email := validation.NormalizeEmail(createUserEmail)
		if !validation.IsValidEmail(email) {
			return fmt.Errorf("invalid email address: %q", createUserEmail)
		}

		password := os.Getenv("FRETLOG_USER_PASSWORD")
		if password == "" {
			fmt.Fprint(os.Stderr, "Password: ")
			raw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(raw)
		}
		if len(password) < auth.MinPasswordLength {
			return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		database, err := connect()
		if err != nil {
			return err
		}
		defer database.Close()

		user, err := database.CreatePasswordUser(context.Background(), email, hash)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Printf("created user %d (%s)\n", user.ID, user.Email)
		return nil
	},
}

var (
	createKeyUserID int64
	createKeyName   string
)

var createAPIKeyCmd = &cobra.Command{
	Use:   "create-api-key",
	Short: "Issue an API key for a user",
	Long: `Generates an API key for the given user and prints the raw key once.
Only the SHA-256 hash is stored; the raw key cannot be recovered later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := connect()
		if err != nil {
			return err
		}
		defer database.Close()

		ctx := context.Background()
		if _, err := database.GetUserByID(ctx, createKeyUserID); err != nil {
			return fmt.Errorf("failed to look up user %d: %w", createKeyUserID, err)
		}

		rawKey, keyHash, err := auth.GenerateAPIKey()
		if err != nil {
			return fmt.Errorf("failed to generate API key: %w", err)
		}

		keyID, _, err := database.CreateAPIKey(ctx, createKeyUserID, keyHash, createKeyName)
		if err != nil {
			return fmt.Errorf("failed to store API key: %w", err)
		}

		fmt.Printf("created key %d for user %d\n", keyID, createKeyUserID)
		fmt.Printf("API key (store it now, it is not shown again): %s\n", rawKey)
		return nil
	},
}

func connect() (*db.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}
	database, err := db.Connect(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, nil
}

func init() {
	createUserCmd.Flags().StringVar(&createUserEmail, "email", "", "email address for the new account")
	createUserCmd.MarkFlagRequired("email")

	createAPIKeyCmd.Flags().Int64Var(&createKeyUserID, "user", 0, "numeric ID of the key's owner")
	createAPIKeyCmd.Flags().StringVar(&createKeyName, "name", "Admin-issued key", "display name for the key")
	createAPIKeyCmd.MarkFlagRequired("user")

	migrateCmd.AddCommand(migrateUpCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(createAPIKeyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
