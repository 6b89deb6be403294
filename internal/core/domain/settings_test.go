package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings_Valid(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())

	assert.Equal(t, EmbeddingProviderNIM, s.Embedding.Provider)
	assert.Equal(t, 40, s.Embedding.RequestsPerMinute)
	assert.Equal(t, 3, s.Embedding.MaxAttempts)
	assert.Equal(t, int64(10*1024*1024), s.Ingest.MaxFileSizeBytes())
}

func TestSettings_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"provider", func(s *Settings) { s.Embedding.Provider = "bogus" }},
		{"rpm", func(s *Settings) { s.Embedding.RequestsPerMinute = 0 }},
		{"attempts", func(s *Settings) { s.Embedding.MaxAttempts = 0 }},
		{"file size", func(s *Settings) { s.Ingest.MaxFileSizeMB = -1 }},
		{"chunk size", func(s *Settings) { s.Ingest.ChunkSize = 0 }},
		{"overlap too large", func(s *Settings) { s.Ingest.ChunkOverlap = s.Ingest.ChunkSize }},
		{"overlap negative", func(s *Settings) { s.Ingest.ChunkOverlap = -1 }},
		{"workers", func(s *Settings) { s.Ingest.Workers = 0 }},
		{"documents", func(s *Settings) { s.Ingest.MaxConcurrentDocuments = 0 }},
		{"vector backend", func(s *Settings) { s.Storage.VectorBackend = "faiss" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
		})
	}
}

func TestEmbeddingProvider_IsValid(t *testing.T) {
	assert.True(t, EmbeddingProviderNIM.IsValid())
	assert.True(t, EmbeddingProviderOpenAI.IsValid())
	assert.True(t, EmbeddingProviderOllama.IsValid())
	assert.False(t, EmbeddingProvider("anthropic").IsValid())
}
