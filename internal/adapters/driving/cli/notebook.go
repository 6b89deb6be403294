package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var notebookDescription string

var notebookCmd = &cobra.Command{
	Use:   "notebook",
	Short: "Manage notebooks",
}

var notebookCreateCmd = &cobra.Command{
	Use:   "create [user-id] [name]",
	Short: "Create a notebook",
	Args:  cobra.ExactArgs(2),
	RunE:  runNotebookCreate,
}

var notebookListCmd = &cobra.Command{
	Use:   "list [user-id]",
	Short: "List a user's notebooks",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotebookList,
}

var notebookDeleteCmd = &cobra.Command{
	Use:   "delete [notebook-id]",
	Short: "Delete a notebook with its documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotebookDelete,
}

func init() {
	notebookCreateCmd.Flags().StringVarP(&notebookDescription, "description", "d", "", "notebook description")
	notebookCmd.AddCommand(notebookCreateCmd)
	notebookCmd.AddCommand(notebookListCmd)
	notebookCmd.AddCommand(notebookDeleteCmd)
	rootCmd.AddCommand(notebookCmd)
}

func runNotebookCreate(cmd *cobra.Command, args []string) error {
	a, err := services()
	if err != nil {
		return err
	}

	nb, err := a.Notebooks.Create(cmd.Context(), args[0], args[1], notebookDescription)
	if err != nil {
		return fmt.Errorf("failed to create notebook: %w", err)
	}
	cmd.Printf("Created notebook %s (%s)\n", bold(nb.Name), nb.ID)
	return nil
}

func runNotebookList(cmd *cobra.Command, args []string) error {
	a, err := services()
	if err != nil {
		return err
	}

	notebooks, err := a.Notebooks.ListByUser(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list notebooks: %w", err)
	}

	if len(notebooks) == 0 {
		cmd.Println("No notebooks found.")
		return nil
	}

	cmd.Printf("Notebooks for %s:\n\n", args[0])
	for i := range notebooks {
		nb := &notebooks[i]
		cmd.Printf("  %s  %s (%d documents)\n", nb.ID, bold(nb.Name), nb.DocumentCount)
		if nb.Description != "" {
			cmd.Printf("      %s\n", nb.Description)
		}
	}
	return nil
}

func runNotebookDelete(cmd *cobra.Command, args []string) error {
	a, err := services()
	if err != nil {
		return err
	}

	if err := a.Notebooks.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete notebook: %w", err)
	}
	cmd.Printf("Deleted notebook %s\n", args[0])
	return nil
}
