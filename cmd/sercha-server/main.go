// Command sercha-server runs the multi-tenant semantic document store.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/custodia-labs/sercha-server/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-server/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-server/internal/adapters/driven/storage/disk"
	"github.com/custodia-labs/sercha-server/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-server/internal/adapters/driven/vector/chromem"
	"github.com/custodia-labs/sercha-server/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/sercha-server/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-server/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-server/internal/core/services"
	"github.com/custodia-labs/sercha-server/internal/logger"
	"github.com/custodia-labs/sercha-server/internal/normalisers"
	"github.com/custodia-labs/sercha-server/internal/postprocessors"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetSettingsBootstrap(openSettings)
	cli.SetBootstrap(bootstrap)

	err := cli.ExecuteContext(ctx)
	if closeErr := cli.Shutdown(); closeErr != nil {
		logger.Warn("shutdown: %v", closeErr)
	}
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// openSettings opens the config file named by --config, or the default one.
func openSettings(configPath string) (driving.SettingsService, error) {
	var (
		store *file.ConfigStore
		err   error
	)
	if configPath != "" {
		store, err = file.NewConfigStoreAt(configPath)
	} else {
		store, err = file.NewConfigStore("")
	}
	if err != nil {
		return nil, err
	}
	return services.NewSettingsService(store), nil
}

// closer collects cleanup functions and runs them in reverse order.
type closer []func() error

func (c *closer) add(fn func() error) {
	*c = append(*c, fn)
}

func (c closer) close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// bootstrap wires the full service graph.
func bootstrap(configPath string) (app *cli.App, err error) {
	settingsSvc, err := openSettings(configPath)
	if err != nil {
		return nil, err
	}
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, err
	}

	dataDir, err := resolveDataDir(settings.Storage.DataDir)
	if err != nil {
		return nil, err
	}

	var cleanup closer
	defer func() {
		if err != nil {
			_ = cleanup.close()
		}
	}()

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	cleanup.add(store.Close)

	files, err := disk.NewFileStore(filepath.Join(dataDir, "uploads"))
	if err != nil {
		return nil, fmt.Errorf("opening file store: %w", err)
	}

	index, err := openIndex(settings.Storage, dataDir)
	if err != nil {
		return nil, err
	}
	cleanup.add(index.Close)

	var embedding driven.EmbeddingService
	svc, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, err
	}
	if svc != nil {
		embedding = svc
		cleanup.add(embedding.Close)
	} else {
		logger.Warn("embedding provider %s is not configured; ingestion and queries will be unavailable",
			settings.Embedding.Provider)
	}

	governor, err := services.NewGovernor(services.GovernorConfig{
		Limit:  settings.Embedding.RequestsPerMinute,
		Window: time.Minute,
	})
	if err != nil {
		return nil, err
	}
	cleanup.add(governor.Close)

	dispatcher := services.NewDispatcher(governor, embedding, services.DispatcherConfig{
		MaxAttempts: settings.Embedding.MaxAttempts,
		BaseDelay:   settings.Embedding.RetryBaseDelay,
	})

	pipeline, err := postprocessors.NewIngestPipeline(settings.Ingest)
	if err != nil {
		return nil, err
	}
	processor := services.NewChunkProcessor(pipeline, dispatcher, index, store.ChunkStore(), settings.Ingest.Workers)

	documents := services.NewDocumentService(
		services.DocumentStores{
			Notebooks: store.NotebookStore(),
			Documents: store.DocumentStore(),
			Chunks:    store.ChunkStore(),
			Files:     files,
		},
		index,
		normalisers.NewDefaultRegistry(),
		processor,
		services.DocumentServiceConfig{
			MaxFileSize:            settings.Ingest.MaxFileSizeBytes(),
			MaxConcurrentDocuments: settings.Ingest.MaxConcurrentDocuments,
		},
	)
	cleanup.add(documents.Close)

	httpCfg := httpapi.DefaultConfig()
	httpCfg.MaxUploadBytes = settings.Ingest.MaxFileSizeBytes()

	logger.Debug("data dir %s, vector backend %s, embedding %s",
		dataDir, settings.Storage.VectorBackend, settings.Embedding.Provider)

	return &cli.App{
		Users:     services.NewUserService(store.UserStore(), store.NotebookStore(), documents),
		Notebooks: services.NewNotebookService(store.UserStore(), store.NotebookStore(), documents),
		Documents: documents,
		Query: services.NewQueryService(store.UserStore(), store.NotebookStore(), index, dispatcher,
			services.QueryServiceConfig{
				Timeout:     settings.Query.Timeout,
				MaxDistance: settings.Query.MaxDistance,
			}),
		Queue:       services.NewQueueService(store.ChunkStore(), governor, embedding, store),
		Settings:    settingsSvc,
		HTTP:        httpCfg,
		Addr:        settings.Server.Addr,
		MaxFileSize: settings.Ingest.MaxFileSizeBytes(),
		Recover:     documents.Recover,
		Close:       cleanup.close,
	}, nil
}

// resolveDataDir defaults to ~/.sercha-server/data.
func resolveDataDir(dir string) (string, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".sercha-server", "data")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	return dir, nil
}

// openIndex opens the configured vector backend.
func openIndex(storage domain.StorageSettings, dataDir string) (driven.VectorIndex, error) {
	switch storage.VectorBackend {
	case domain.VectorBackendMemory:
		return memory.New(), nil
	default:
		index, err := chromem.New(filepath.Join(dataDir, "vectors"))
		if err != nil {
			return nil, fmt.Errorf("opening vector index: %w", err)
		}
		return index, nil
	}
}
