// Package ai provides factory functions for creating embedding service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/sercha-server/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-server/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// IsConfigured reports whether settings carry enough to build a provider.
// Hosted providers need an API key; Ollama needs nothing.
func IsConfigured(settings *domain.EmbeddingSettings) bool {
	if settings == nil || !settings.Provider.IsValid() {
		return false
	}
	if settings.Provider == domain.EmbeddingProviderOllama {
		return true
	}
	return settings.APIKey != ""
}

// CreateEmbeddingService creates the embedding service selected by settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}

	switch settings.Provider {
	case domain.EmbeddingProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.EmbeddingProviderNIM, domain.EmbeddingProviderOpenAI:
		if !IsConfigured(settings) {
			return nil, nil
		}
		return createOpenAIEmbedding(settings)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrInvalidInput, settings.Provider)
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(
	ctx context.Context,
	settings *domain.EmbeddingSettings,
) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'sercha-server config set' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// nonNIM clears values left at the NIM defaults from DefaultSettings.
// Other providers fall back to their own defaults when these are left unchanged.
func nonNIM(value, nimDefault string) string {
	if value == nimDefault {
		return ""
	}
	return value
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	d := domain.DefaultSettings().Embedding

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    nonNIM(settings.BaseURL, d.BaseURL),
		Model:      nonNIM(settings.Model, d.Model),
		Timeout:    settings.Timeout,
		Dimensions: dimensionsFor(settings, d),
	})
}

// createOpenAIEmbedding creates an OpenAI-compatible embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	cfg := openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Timeout:    settings.Timeout,
		Dimensions: settings.Dimensions,
		NIM:        settings.Provider == domain.EmbeddingProviderNIM,
	}

	if !cfg.NIM {
		d := domain.DefaultSettings().Embedding
		cfg.BaseURL = nonNIM(cfg.BaseURL, d.BaseURL)
		cfg.Model = nonNIM(cfg.Model, d.Model)
		cfg.Dimensions = dimensionsFor(settings, d)
	}

	return openaiembed.NewEmbeddingService(cfg)
}

// dimensionsFor drops the NIM default dimension when the model was not set,
// so the adapter picks the model's own size.
func dimensionsFor(settings *domain.EmbeddingSettings, d domain.EmbeddingSettings) int {
	if settings.Model == d.Model || settings.Model == "" {
		if settings.Dimensions == d.Dimensions {
			return 0
		}
	}
	return settings.Dimensions
}
