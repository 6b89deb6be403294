package services

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider      = "embedding.provider"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyEmbedModel         = "embedding.model"
	keyEmbedDimensions    = "embedding.dimensions"
	keyEmbedRPM           = "embedding.requests_per_minute"
	keyEmbedMaxAttempts   = "embedding.max_attempts"
	keyEmbedRetryDelay    = "embedding.retry_base_delay"
	keyEmbedTimeout       = "embedding.timeout"
	keyIngestMaxFileMB    = "ingest.max_file_size_mb"
	keyIngestChunkSize    = "ingest.chunk_size"
	keyIngestChunkOverlap = "ingest.chunk_overlap"
	keyIngestWorkers      = "ingest.workers"
	keyIngestMaxDocs      = "ingest.max_concurrent_documents"
	keyQueryTimeout       = "query.timeout"
	keyQueryMaxDistance   = "query.max_distance"
	keyStorageDataDir     = "storage.data_dir"
	keyStorageVector      = "storage.vector_backend"
	keyServerAddr         = "server.addr"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindDuration
)

var settingKinds = map[string]valueKind{
	keyEmbedProvider:      kindString,
	keyEmbedBaseURL:       kindString,
	keyEmbedAPIKey:        kindString,
	keyEmbedModel:         kindString,
	keyEmbedDimensions:    kindInt,
	keyEmbedRPM:           kindInt,
	keyEmbedMaxAttempts:   kindInt,
	keyEmbedRetryDelay:    kindDuration,
	keyEmbedTimeout:       kindDuration,
	keyIngestMaxFileMB:    kindInt,
	keyIngestChunkSize:    kindInt,
	keyIngestChunkOverlap: kindInt,
	keyIngestWorkers:      kindInt,
	keyIngestMaxDocs:      kindInt,
	keyQueryTimeout:       kindDuration,
	keyQueryMaxDistance:   kindFloat,
	keyStorageDataDir:     kindString,
	keyStorageVector:      kindString,
	keyServerAddr:         kindString,
}

// SettingsService manages service configuration.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get returns defaults overlaid with stored values.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		Embedding: domain.EmbeddingSettings{
			Provider:          domain.EmbeddingProvider(s.getString(keyEmbedProvider, string(d.Embedding.Provider))),
			BaseURL:           s.getString(keyEmbedBaseURL, d.Embedding.BaseURL),
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Model:             s.getString(keyEmbedModel, d.Embedding.Model),
			Dimensions:        s.getInt(keyEmbedDimensions, d.Embedding.Dimensions),
			RequestsPerMinute: s.getInt(keyEmbedRPM, d.Embedding.RequestsPerMinute),
			MaxAttempts:       s.getInt(keyEmbedMaxAttempts, d.Embedding.MaxAttempts),
			RetryBaseDelay:    s.getDuration(keyEmbedRetryDelay, d.Embedding.RetryBaseDelay),
			Timeout:           s.getDuration(keyEmbedTimeout, d.Embedding.Timeout),
		},
		Ingest: domain.IngestSettings{
			MaxFileSizeMB:          s.getInt(keyIngestMaxFileMB, d.Ingest.MaxFileSizeMB),
			ChunkSize:              s.getInt(keyIngestChunkSize, d.Ingest.ChunkSize),
			ChunkOverlap:           s.getInt(keyIngestChunkOverlap, d.Ingest.ChunkOverlap),
			Workers:                s.getInt(keyIngestWorkers, d.Ingest.Workers),
			MaxConcurrentDocuments: s.getInt(keyIngestMaxDocs, d.Ingest.MaxConcurrentDocuments),
		},
		Query: domain.QuerySettings{
			Timeout:     s.getDuration(keyQueryTimeout, d.Query.Timeout),
			MaxDistance: s.getFloat(keyQueryMaxDistance, d.Query.MaxDistance),
		},
		Storage: domain.StorageSettings{
			DataDir:       s.getString(keyStorageDataDir, d.Storage.DataDir),
			VectorBackend: domain.VectorBackend(s.getString(keyStorageVector, string(d.Storage.VectorBackend))),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, d.Server.Addr),
		},
	}

	if settings.Storage.DataDir == "" {
		settings.Storage.DataDir = defaultDataDir(s.configStore.Path())
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Set parses value for key, stores it and saves the configuration.
// The previous value is restored when the result does not validate.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: %s must be a duration such as 30s", domain.ErrInvalidInput, key)
		}
		parsed = value
	default:
		parsed = value
	}

	prev, had := s.configStore.Get(key)
	if err := s.configStore.Set(key, parsed); err != nil {
		return err
	}
	if _, err := s.Get(); err != nil {
		if had {
			_ = s.configStore.Set(key, prev)
		} else {
			_ = s.configStore.Set(key, nil)
		}
		return err
	}
	return s.configStore.Save()
}

// Keys returns every recognised configuration key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) present(key string) bool {
	val, ok := s.configStore.Get(key)
	return ok && val != nil
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if !s.present(key) {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if !s.present(key) {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if !s.present(key) {
		return defaultVal
	}
	if d := s.configStore.GetDuration(key); d > 0 {
		return d
	}
	return defaultVal
}

// defaultDataDir places data next to the configuration file.
func defaultDataDir(configPath string) string {
	if configPath == "" || configPath == ":memory:" {
		return "data"
	}
	return filepath.Join(filepath.Dir(configPath), "data")
}
