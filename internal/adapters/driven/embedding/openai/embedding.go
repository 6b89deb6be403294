// Package openai provides an embedding service adapter for OpenAI compatible
// APIs, including NVIDIA NIM endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/postprocessors/sanitiser"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultNIMBaseURL = "https://integrate.api.nvidia.com/v1"
	DefaultModel      = "text-embedding-3-small"
	DefaultNIMModel   = "nvidia/nv-embedqa-e5-v5"
	DefaultTimeout    = 60 * time.Second

	// MaxInputLength caps the characters sent per request.
	MaxInputLength = 1800
)

// Model dimensions for known embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small":  1536,
	"text-embedding-3-large":  3072,
	"text-embedding-ada-002":  1536,
	"nvidia/nv-embedqa-e5-v5": 1024,
}

// Config holds configuration for the embedding service.
type Config struct {
	// APIKey is the bearer token (required).
	APIKey string

	// BaseURL is the API base URL.
	BaseURL string

	// Model is the embedding model to use.
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions is the expected vector size. Zero uses the model's default.
	Dimensions int

	// NIM sends the asymmetric input_type field that NIM retrieval models require.
	NIM bool
}

// EmbeddingService generates embeddings over HTTP.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	nim        bool
}

// embeddingRequest is the API request format.
type embeddingRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	InputType      string   `json:"input_type,omitempty"`
	EncodingFormat string   `json:"encoding_format"`
	Dimensions     int      `json:"dimensions,omitempty"`
}

// embeddingResponse is the API response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService creates a new embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
		if cfg.NIM {
			cfg.BaseURL = DefaultNIMBaseURL
		}
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
		if cfg.NIM {
			cfg.Model = DefaultNIMModel
		}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = modelDimensions[cfg.Model]
	}

	return &EmbeddingService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: dimensions,
		nim:        cfg.NIM,
	}, nil
}

// Embed generates a vector embedding for the given text.
// HTTP 429, 5xx and network failures wrap domain.ErrEmbeddingTransient;
// other rejections wrap domain.ErrEmbeddingPermanent.
func (s *EmbeddingService) Embed(ctx context.Context, text string, inputType driven.InputType) ([]float32, error) {
	text = sanitiser.Truncate(sanitiser.Clean(text), MaxInputLength)
	if text == "" {
		return nil, fmt.Errorf("openai: %w: input is empty after sanitising", domain.ErrEmbeddingPermanent)
	}

	reqBody := embeddingRequest{
		Model:          s.model,
		Input:          []string{text},
		EncodingFormat: "float",
	}
	if s.nim {
		reqBody.InputType = string(inputType)
	}

	// Only text-embedding-3-* models accept a dimensions override
	if s.model == "text-embedding-3-small" || s.model == "text-embedding-3-large" {
		if s.dimensions > 0 {
			reqBody.Dimensions = s.dimensions
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: %w: send request: %w", domain.ErrEmbeddingTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: %w: read response: %w", domain.ErrEmbeddingTransient, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classify(resp.StatusCode, body)
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("openai: %w: decode response: %w", domain.ErrEmbeddingTransient, err)
	}
	if embedResp.Error != nil {
		return nil, fmt.Errorf("openai: %w: %s", domain.ErrEmbeddingPermanent, embedResp.Error.Message)
	}
	if len(embedResp.Data) == 0 || len(embedResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai: %w: no embedding returned", domain.ErrEmbeddingPermanent)
	}

	data := embedResp.Data[0].Embedding
	if s.dimensions > 0 && len(data) != s.dimensions {
		return nil, fmt.Errorf("openai: %w: got %d dimensions, want %d",
			domain.ErrEmbeddingPermanent, len(data), s.dimensions)
	}

	embedding := make([]float32, len(data))
	for i, v := range data {
		embedding[i] = float32(v)
	}
	return embedding, nil
}

// classify maps an HTTP failure onto the embedding error taxonomy.
func classify(status int, body []byte) error {
	detail := string(body)
	if len(detail) > 500 {
		detail = detail[:500]
	}
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return fmt.Errorf("openai: %w: status %d: %s", domain.ErrEmbeddingTransient, status, detail)
	}
	return fmt.Errorf("openai: %w: status %d: %s", domain.ErrEmbeddingPermanent, status, detail)
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
