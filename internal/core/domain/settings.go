package domain

import (
	"fmt"
	"time"
)

// EmbeddingProvider identifies an embedding backend.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderNIM is an NVIDIA NIM (OpenAI compatible) endpoint.
	EmbeddingProviderNIM EmbeddingProvider = "nim"

	// EmbeddingProviderOpenAI is the OpenAI cloud API.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"

	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderNIM, EmbeddingProviderOpenAI, EmbeddingProviderOllama:
		return true
	default:
		return false
	}
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	VectorBackendChromem VectorBackend = "chromem"
	VectorBackendMemory  VectorBackend = "memory"
)

// EmbeddingSettings configures the embedding provider and its quota.
type EmbeddingSettings struct {
	Provider          EmbeddingProvider
	BaseURL           string
	APIKey            string
	Model             string
	Dimensions        int
	RequestsPerMinute int
	MaxAttempts       int
	RetryBaseDelay    time.Duration
	Timeout           time.Duration
}

// IngestSettings configures uploads and chunking.
type IngestSettings struct {
	MaxFileSizeMB          int
	ChunkSize              int
	ChunkOverlap           int
	Workers                int
	MaxConcurrentDocuments int
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (s IngestSettings) MaxFileSizeBytes() int64 {
	return int64(s.MaxFileSizeMB) * 1024 * 1024
}

// QuerySettings configures query execution.
type QuerySettings struct {
	Timeout time.Duration

	// MaxDistance drops hits farther than this L2 distance. Zero disables it.
	MaxDistance float64
}

// StorageSettings configures on-disk state.
type StorageSettings struct {
	DataDir       string
	VectorBackend VectorBackend
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string
}

// Settings is the complete service configuration.
type Settings struct {
	Embedding EmbeddingSettings
	Ingest    IngestSettings
	Query     QuerySettings
	Storage   StorageSettings
	Server    ServerSettings
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Provider:          EmbeddingProviderNIM,
			BaseURL:           "https://integrate.api.nvidia.com/v1",
			Model:             "nvidia/nv-embedqa-e5-v5",
			Dimensions:        1024,
			RequestsPerMinute: 40,
			MaxAttempts:       3,
			RetryBaseDelay:    time.Second,
			Timeout:           60 * time.Second,
		},
		Ingest: IngestSettings{
			MaxFileSizeMB:          10,
			ChunkSize:              1200,
			ChunkOverlap:           120,
			Workers:                4,
			MaxConcurrentDocuments: 8,
		},
		Query: QuerySettings{
			Timeout: 30 * time.Second,
		},
		Storage: StorageSettings{
			VectorBackend: VectorBackendChromem,
		},
		Server: ServerSettings{
			Addr: ":8080",
		},
	}
}

// Validate checks settings for values the services cannot run with.
func (s Settings) Validate() error {
	switch {
	case !s.Embedding.Provider.IsValid():
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, s.Embedding.Provider)
	case s.Embedding.RequestsPerMinute <= 0:
		return fmt.Errorf("%w: embedding.requests_per_minute must be positive", ErrInvalidInput)
	case s.Embedding.MaxAttempts <= 0:
		return fmt.Errorf("%w: embedding.max_attempts must be positive", ErrInvalidInput)
	case s.Ingest.MaxFileSizeMB <= 0:
		return fmt.Errorf("%w: ingest.max_file_size_mb must be positive", ErrInvalidInput)
	case s.Ingest.ChunkSize <= 0:
		return fmt.Errorf("%w: ingest.chunk_size must be positive", ErrInvalidInput)
	case s.Ingest.ChunkOverlap < 0 || s.Ingest.ChunkOverlap >= s.Ingest.ChunkSize:
		return fmt.Errorf("%w: ingest.chunk_overlap must be in [0, chunk_size)", ErrInvalidInput)
	case s.Ingest.Workers <= 0:
		return fmt.Errorf("%w: ingest.workers must be positive", ErrInvalidInput)
	case s.Ingest.MaxConcurrentDocuments <= 0:
		return fmt.Errorf("%w: ingest.max_concurrent_documents must be positive", ErrInvalidInput)
	case s.Storage.VectorBackend != VectorBackendChromem && s.Storage.VectorBackend != VectorBackendMemory:
		return fmt.Errorf("%w: unknown vector backend %q", ErrInvalidInput, s.Storage.VectorBackend)
	}
	return nil
}
