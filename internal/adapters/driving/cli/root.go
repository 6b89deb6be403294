// Package cli provides the sercha-server command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-server/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-server/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// App holds the services the commands drive.
type App struct {
	Users     driving.UserService
	Notebooks driving.NotebookService
	Documents driving.DocumentService
	Query     driving.QueryService
	Queue     driving.QueueService
	Settings  driving.SettingsService

	// HTTP configures the API server started by serve.
	HTTP httpapi.Config

	// Addr is the default listen address for serve.
	Addr string

	// MaxFileSize is the upload limit in bytes, used by watch.
	MaxFileSize int64

	// Recover resumes ingestion interrupted by an earlier shutdown. Only
	// long-running commands call it. It may be nil.
	Recover func(ctx context.Context) error

	// Close releases resources. It may be nil.
	Close func() error
}

// Bootstrap builds an App from the configuration file path given by --config.
type Bootstrap func(configPath string) (*App, error)

// SettingsBootstrap opens only the configuration, so settings can be
// repaired when the full service graph would fail to start.
type SettingsBootstrap func(configPath string) (driving.SettingsService, error)

var (
	app               *App
	bootstrap         Bootstrap
	settingsBootstrap SettingsBootstrap

	configPath string
	verbose    bool
	jsonLogs   bool
)

var rootCmd = &cobra.Command{
	Use:   "sercha-server",
	Short: "Multi-tenant semantic document store",
	Long: `sercha-server stores documents in per-user notebooks, embeds them under
a requests-per-minute ceiling and answers semantic queries over HTTP, MCP
and the command line.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.sercha-server/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "write logs as JSON lines")
}

// SetBootstrap sets the function that builds services before a command runs.
func SetBootstrap(fn Bootstrap) {
	bootstrap = fn
}

// SetSettingsBootstrap sets the function used by the config commands.
func SetSettingsBootstrap(fn SettingsBootstrap) {
	settingsBootstrap = fn
}

// SetApp installs prebuilt services, bypassing bootstrap.
func SetApp(a *App) {
	app = a
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which commands such as
// serve use to stop.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Shutdown releases services left open when a command fails before its
// post-run hook.
func Shutdown() error {
	return teardown()
}

// Command annotations controlling what setup builds.
const (
	annotStandalone = "standalone"
	annotSettings   = "settings"
)

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetJSON(jsonLogs)

	if _, ok := cmd.Annotations[annotStandalone]; ok {
		return nil
	}
	if _, ok := cmd.Annotations[annotSettings]; ok {
		return setupSettings()
	}
	if app != nil {
		return nil
	}
	if bootstrap == nil {
		return errors.New("services not configured")
	}

	a, err := bootstrap(configPath)
	if err != nil {
		return fmt.Errorf("starting services: %w", err)
	}
	app = a
	return nil
}

func setupSettings() error {
	if app != nil && app.Settings != nil {
		return nil
	}
	if settingsBootstrap == nil {
		return errors.New("settings not configured")
	}

	svc, err := settingsBootstrap(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if app == nil {
		app = &App{}
	}
	app.Settings = svc
	return nil
}

func teardown() error {
	if app == nil || app.Close == nil {
		return nil
	}
	err := app.Close()
	app.Close = nil
	return err
}

// resume runs App.Recover when set.
func (a *App) resume(ctx context.Context) error {
	if a.Recover == nil {
		return nil
	}
	if err := a.Recover(ctx); err != nil {
		return fmt.Errorf("resuming ingestion: %w", err)
	}
	return nil
}

// services returns the configured App or an error.
func services() (*App, error) {
	if app == nil {
		return nil, errors.New("services not configured")
	}
	return app, nil
}
