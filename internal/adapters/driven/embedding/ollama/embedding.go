// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/postprocessors/sanitiser"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 768 // nomic-embed-text default

	// MaxInputLength caps the characters sent per request.
	MaxInputLength = 1800
)

// Task prefixes for models trained on asymmetric retrieval.
var taskPrefixes = map[string][2]string{
	"nomic-embed-text": {"search_query: ", "search_document: "},
}

// Config holds configuration for the Ollama embedding service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model to use (default: nomic-embed-text).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// Dimensions is the embedding vector size (model-dependent).
	Dimensions int
}

// EmbeddingService generates embeddings using Ollama.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	model      string
	dimensions int
}

// embedRequest is the Ollama /api/embed request format.
type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embedResponse is the Ollama /api/embed response format.
type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// NewEmbeddingService creates a new Ollama embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	return &EmbeddingService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string, inputType driven.InputType) ([]float32, error) {
	text = sanitiser.Truncate(sanitiser.Clean(text), MaxInputLength)
	if text == "" {
		return nil, fmt.Errorf("ollama: %w: input is empty after sanitising", domain.ErrEmbeddingPermanent)
	}
	text = s.withTaskPrefix(text, inputType)

	jsonBody, err := json.Marshal(embedRequest{Model: s.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/embed", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("ollama: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w: send request: %w", domain.ErrEmbeddingTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return nil, fmt.Errorf("ollama: %w: status %d: %s", classify(resp.StatusCode), resp.StatusCode, string(body))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("ollama: %w: decode response: %w", domain.ErrEmbeddingTransient, err)
	}
	if embedResp.Error != "" {
		return nil, fmt.Errorf("ollama: %w: %s", domain.ErrEmbeddingPermanent, embedResp.Error)
	}
	if len(embedResp.Embeddings) == 0 || len(embedResp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama: %w: no embedding returned", domain.ErrEmbeddingPermanent)
	}

	return toFloat32(embedResp.Embeddings[0]), nil
}

// withTaskPrefix adds the query or document prefix some models expect.
func (s *EmbeddingService) withTaskPrefix(text string, inputType driven.InputType) string {
	p, ok := taskPrefixes[strings.Split(s.model, ":")[0]]
	if !ok {
		return text
	}
	if inputType == driven.InputTypeQuery {
		return p[0] + text
	}
	return p[1] + text
}

// classify maps an HTTP status to a transient or permanent embedding error.
// Ollama answers 500 while a model is still loading, so 5xx is retried.
func classify(status int) error {
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return domain.ErrEmbeddingTransient
	}
	return domain.ErrEmbeddingPermanent
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// tagsResponse is the Ollama /api/tags response format.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Ping checks that Ollama answers and that the configured model is pulled.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: ping: status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("ollama: ping: decode tags: %w", err)
	}
	for _, m := range tags.Models {
		if sameModel(m.Name, s.model) {
			return nil
		}
	}
	return fmt.Errorf("ollama: model %q is not pulled (run: ollama pull %s)", s.model, s.model)
}

// sameModel compares model names, treating a missing tag as ":latest".
func sameModel(a, b string) bool {
	withTag := func(name string) string {
		if !strings.Contains(name, ":") {
			return name + ":latest"
		}
		return name
	}
	return withTag(a) == withTag(b)
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
