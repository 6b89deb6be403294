package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

var queueJSON bool

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show the global ingestion queue",
	Args:  cobra.NoArgs,
	RunE:  runQueue,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check embedding provider and database connectivity",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	queueCmd.Flags().BoolVar(&queueJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(healthCmd)
}

func runQueue(cmd *cobra.Command, _ []string) error {
	a, err := services()
	if err != nil {
		return err
	}

	status, err := a.Queue.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get queue status: %w", err)
	}

	if queueJSON {
		return printJSON(cmd, status)
	}

	cmd.Println(bold("Queue"))
	printCounts(cmd, domain.StateCounts{
		Pending:    status.Pending,
		Processing: status.Processing,
		Completed:  status.Completed,
		Failed:     status.Failed,
	})
	if status.EstimatedWaitMinutes != nil {
		cmd.Printf("  Estimated wait: %.1f min\n", *status.EstimatedWaitMinutes)
	}
	return nil
}

func runHealth(cmd *cobra.Command, _ []string) error {
	a, err := services()
	if err != nil {
		return err
	}

	health, err := a.Queue.Health(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to check health: %w", err)
	}

	label := green(health.Status)
	if health.Status != domain.HealthHealthy {
		label = yellow(health.Status)
	}
	cmd.Printf("Status:    %s\n", label)
	cmd.Printf("Embedding: %s\n", connected(health.EmbeddingConnected))
	cmd.Printf("Database:  %s\n", connected(health.DatabaseConnected))
	cmd.Printf("Queue:     %d\n", health.QueueDepth)
	return nil
}

func connected(ok bool) string {
	if ok {
		return green("connected")
	}
	return red("unreachable")
}
