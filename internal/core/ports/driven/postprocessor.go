package driven

import "context"

// PostProcessor transforms extracted text segments before embedding.
// PostProcessors are chained in a pipeline (e.g., cleaning, then chunking).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process receives the segments produced by the previous stage and
	// returns the segments for the next one. A chunker returns chunk texts.
	Process(ctx context.Context, segments []string) ([]string, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the segments through all processors in order.
	// Returns the final texts, one per chunk.
	Process(ctx context.Context, segments []string) ([]string, error)
}
