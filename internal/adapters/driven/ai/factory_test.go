package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

func TestIsConfigured(t *testing.T) {
	assert.False(t, IsConfigured(nil))
	assert.False(t, IsConfigured(&domain.EmbeddingSettings{Provider: "bogus", APIKey: "k"}))
	assert.False(t, IsConfigured(&domain.EmbeddingSettings{Provider: domain.EmbeddingProviderNIM}))
	assert.True(t, IsConfigured(&domain.EmbeddingSettings{Provider: domain.EmbeddingProviderNIM, APIKey: "k"}))
	assert.True(t, IsConfigured(&domain.EmbeddingSettings{Provider: domain.EmbeddingProviderOllama}))
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantNil  bool
		wantErr  bool
		wantDims int
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "nim without api key returns nil",
			settings: &domain.EmbeddingSettings{Provider: domain.EmbeddingProviderNIM},
			wantNil:  true,
		},
		{
			name: "nim provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider:   domain.EmbeddingProviderNIM,
				APIKey:     "nvapi-test",
				Model:      "nvidia/nv-embedqa-e5-v5",
				Dimensions: 1024,
			},
			wantDims: 1024,
		},
		{
			name: "openai provider ignores nim defaults",
			settings: func() *domain.EmbeddingSettings {
				s := domain.DefaultSettings().Embedding
				s.Provider = domain.EmbeddingProviderOpenAI
				s.APIKey = "sk-test"
				return &s
			}(),
			wantDims: 1536,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.EmbeddingProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
			wantDims: 768,
		},
		{
			name:     "unknown provider returns error",
			settings: &domain.EmbeddingSettings{Provider: "unknown", APIKey: "k"},
			wantNil:  true,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantDims, svc.Dimensions())
			svc.Close()
		})
	}
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("unconfigured returns nil without error", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.EmbeddingProviderOpenAI,
		})
		assert.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("unreachable provider is unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.EmbeddingProviderOllama,
			BaseURL:  server.URL,
			Model:    "nomic-embed-text",
		})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Nil(t, svc)
	})
}
