package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create [user-id]",
	Short: "Register a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserCreate,
}

var userGetCmd = &cobra.Command{
	Use:   "get [user-id]",
	Short: "Show a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserGet,
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete [user-id]",
	Short: "Delete a user with all notebooks and documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserDelete,
}

func init() {
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userGetCmd)
	userCmd.AddCommand(userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	a, err := services()
	if err != nil {
		return err
	}

	user, err := a.Users.Create(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	cmd.Printf("Created user %s\n", bold(user.ID))
	return nil
}

func runUserGet(cmd *cobra.Command, args []string) error {
	a, err := services()
	if err != nil {
		return err
	}

	user, err := a.Users.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	cmd.Printf("User:    %s\n", bold(user.ID))
	cmd.Printf("Created: %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	a, err := services()
	if err != nil {
		return err
	}

	if err := a.Users.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	cmd.Printf("Deleted user %s\n", args[0])
	return nil
}
