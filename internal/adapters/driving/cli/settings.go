package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

var settingsAnnotations = map[string]string{annotSettings: ""}

var settingsCmd = &cobra.Command{
	Use:         "config",
	Short:       "Manage configuration",
	Long:        `View and change configuration. Environment variables (SERCHA_*) override stored values.`,
	Annotations: settingsAnnotations,
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show effective configuration",
	Annotations: settingsAnnotations,
	RunE:        runSettingsShow,
}

var settingsKeysCmd = &cobra.Command{
	Use:         "keys",
	Short:       "List configuration keys",
	Annotations: settingsAnnotations,
	RunE:        runSettingsKeys,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value and save the config file.

Examples:
  sercha-server config set embedding.provider ollama
  sercha-server config set embedding.requests_per_minute 120
  sercha-server config set query.timeout 10s`,
	Args:        cobra.ExactArgs(2),
	Annotations: settingsAnnotations,
	RunE:        runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Settings == nil {
		return errors.New("settings service not configured")
	}

	settings, err := app.Settings.Get()
	if err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'sercha-server config set' to fix configuration issues.")
		return nil
	}

	printSettings(cmd, settings)
	return nil
}

func printSettings(cmd *cobra.Command, s *domain.Settings) {
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", s.Embedding.Provider)
	cmd.Printf("  Base URL: %s\n", s.Embedding.BaseURL)
	cmd.Printf("  Model: %s\n", s.Embedding.Model)
	cmd.Printf("  Dimensions: %d\n", s.Embedding.Dimensions)
	if s.Embedding.APIKey != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(s.Embedding.APIKey))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
	cmd.Printf("  Requests per minute: %d\n", s.Embedding.RequestsPerMinute)
	cmd.Printf("  Max attempts: %d\n", s.Embedding.MaxAttempts)
	cmd.Printf("  Retry base delay: %s\n", s.Embedding.RetryBaseDelay)
	cmd.Printf("  Timeout: %s\n", s.Embedding.Timeout)
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Max file size: %d MB\n", s.Ingest.MaxFileSizeMB)
	cmd.Printf("  Chunk size: %d\n", s.Ingest.ChunkSize)
	cmd.Printf("  Chunk overlap: %d\n", s.Ingest.ChunkOverlap)
	cmd.Printf("  Workers: %d\n", s.Ingest.Workers)
	cmd.Printf("  Max concurrent documents: %d\n", s.Ingest.MaxConcurrentDocuments)
	cmd.Println()

	cmd.Println("[Query]")
	cmd.Printf("  Timeout: %s\n", s.Query.Timeout)
	if s.Query.MaxDistance > 0 {
		cmd.Printf("  Max distance: %.3f\n", s.Query.MaxDistance)
	} else {
		cmd.Printf("  Max distance: off\n")
	}
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Data dir: %s\n", s.Storage.DataDir)
	cmd.Printf("  Vector backend: %s\n", s.Storage.VectorBackend)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", s.Server.Addr)
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Settings == nil {
		return errors.New("settings service not configured")
	}
	for _, k := range app.Settings.Keys() {
		cmd.Println(k)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if app == nil || app.Settings == nil {
		return errors.New("settings service not configured")
	}

	if err := app.Settings.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
