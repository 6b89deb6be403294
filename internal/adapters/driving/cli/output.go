package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

// statusLabel colours a processing status.
func statusLabel(s domain.ProcessingStatus) string {
	switch s {
	case domain.StatusCompleted:
		return green(string(s))
	case domain.StatusFailed:
		return red(string(s))
	case domain.StatusProcessing:
		return yellow(string(s))
	default:
		return cyan(string(s))
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printCounts(cmd *cobra.Command, c domain.StateCounts) {
	cmd.Printf("  Pending:    %d\n", c.Pending)
	cmd.Printf("  Processing: %d\n", c.Processing)
	cmd.Printf("  Completed:  %d\n", c.Completed)
	cmd.Printf("  Failed:     %d\n", c.Failed)
}
