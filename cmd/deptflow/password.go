package main

import (
	"fmt"
	"strings"

	"github.com/deptflow/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var passwordValue string

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Generate a bcrypt hash for the dashboard login",
	Long: `Generate the bcrypt hash that enables the dashboard login. Put the output in
DASHBOARD_PASSWORD_HASH or dashboard_password_hash in config.toml.

Without --password the password is read interactively.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := passwordValue
		if password == "" {
			prompted, err := cli.PromptPassword()
			if err != nil {
				return err
			}
			password = prompted
		}
		if strings.TrimSpace(password) == "" {
			return fmt.Errorf("password is required")
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(hashed))
		return nil
	},
}

func init() {
	hashPasswordCmd.Flags().StringVar(&passwordValue, "password", "", "password to hash (prompted when empty)")
	rootCmd.AddCommand(hashPasswordCmd)
}
