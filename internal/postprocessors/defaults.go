package postprocessors

import (
	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/postprocessors/chunker"
	"github.com/custodia-labs/sercha-server/internal/postprocessors/sanitiser"
)

// DefaultOrder is the processor chain used for ingestion.
var DefaultOrder = []string{"sanitiser", "chunker"}

// NewIngestPipeline builds the default chain configured from ingest settings.
func NewIngestPipeline(ingest domain.IngestSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.BuildPipeline(DefaultOrder, map[string]map[string]any{
		"chunker": {
			"chunk_size": ingest.ChunkSize,
			"overlap":    ingest.ChunkOverlap,
		},
	})
}

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("sanitiser", buildSanitiser)
	r.Register("chunker", buildChunker)
}

func buildSanitiser(_ map[string]any) (driven.PostProcessor, error) {
	return sanitiser.New(), nil
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1200)
//   - overlap (int): Overlapping characters between chunks (default: 120)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
			opts = append(opts, chunker.WithChunkSize(size))
		}
		if _, ok := cfg["overlap"]; ok {
			opts = append(opts, chunker.WithOverlap(getIntFromConfig(cfg, "overlap")))
		}
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
