package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

var (
	uploadWait     bool
	uploadTimeout  time.Duration
	uploadInterval = time.Second
	statusJSON     bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload [notebook-id] [file]",
	Short: "Upload a file into a notebook",
	Long: `Upload a file for ingestion. The command returns once the file is stored
and queued; use --wait to follow processing until it completes or fails.`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

var statusCmd = &cobra.Command{
	Use:   "status [document-id]",
	Short: "Show document processing status",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage documents",
}

var documentListCmd = &cobra.Command{
	Use:   "list [notebook-id]",
	Short: "List the documents of a notebook",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentList,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Delete a document and its vectors",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	uploadCmd.Flags().BoolVarP(&uploadWait, "wait", "w", false, "wait for processing to finish")
	uploadCmd.Flags().DurationVar(&uploadTimeout, "timeout", 30*time.Minute, "maximum time to wait with --wait")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentDeleteCmd)

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(documentCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	a, err := services()
	if err != nil {
		return err
	}

	notebookID, path := args[0], args[1]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	doc, err := a.Documents.Upload(cmd.Context(), notebookID, filepath.Base(path), content)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	cmd.Printf("Uploaded %s as %s (%s, %d bytes)\n", bold(doc.Filename), doc.ID, doc.FileType, doc.FileSize)
	if !uploadWait {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), uploadTimeout)
	defer cancel()

	status, err := waitForDocument(ctx, a, doc.ID, func(s *domain.DocumentStatus) {
		cmd.Printf("  %s: %d/%d chunks\n", statusLabel(s.Status), s.Counts.Completed, s.ChunkCount)
	})
	if err != nil {
		return err
	}

	if status.Status == domain.StatusFailed {
		return fmt.Errorf("processing failed: %s", status.ErrorMessage)
	}
	cmd.Printf("Document %s %s\n", doc.ID, statusLabel(status.Status))
	return nil
}

// waitForDocument polls until the document reaches a terminal status.
// progress is called whenever the completed count changes.
func waitForDocument(
	ctx context.Context,
	a *App,
	documentID string,
	progress func(*domain.DocumentStatus),
) (*domain.DocumentStatus, error) {
	ticker := time.NewTicker(uploadInterval)
	defer ticker.Stop()

	last := -1
	for {
		status, err := a.Documents.Status(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get status: %w", err)
		}
		if status.Counts.Completed != last {
			last = status.Counts.Completed
			progress(status)
		}
		if status.Status.IsTerminal() {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", documentID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := services()
	if err != nil {
		return err
	}

	status, err := a.Documents.Status(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if statusJSON {
		return printJSON(cmd, map[string]any{
			"document_id":       status.DocumentID,
			"processing_status": status.Status,
			"chunk_count":       status.ChunkCount,
			"queue_status":      status.Counts,
			"error_message":     status.ErrorMessage,
		})
	}

	cmd.Printf("Document: %s\n", status.DocumentID)
	cmd.Printf("Status:   %s\n", statusLabel(status.Status))
	cmd.Printf("Chunks:   %d\n", status.ChunkCount)
	printCounts(cmd, status.Counts)
	if status.ErrorMessage != "" {
		cmd.Printf("Error:    %s\n", red(status.ErrorMessage))
	}
	return nil
}

func runDocumentList(cmd *cobra.Command, args []string) error {
	a, err := services()
	if err != nil {
		return err
	}

	docs, err := a.Documents.ListByNotebook(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	cmd.Printf("Documents in %s:\n\n", args[0])
	for i := range docs {
		d := &docs[i]
		cmd.Printf("  %s  %s  %s (%d chunks)\n", d.ID, bold(d.Filename), statusLabel(d.Status), d.ChunkCount)
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	a, err := services()
	if err != nil {
		return err
	}

	if err := a.Documents.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	cmd.Printf("Deleted document %s\n", args[0])
	return nil
}
