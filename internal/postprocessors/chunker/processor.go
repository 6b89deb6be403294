// Package chunker provides an overlapping text chunking processor.
//
// Every chunk is a contiguous substring of its input segment and consecutive
// chunks overlap or touch, so together they cover the whole segment.
package chunker

import (
	"context"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1200

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 120

// Processor splits text segments into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

var _ driven.PostProcessor = (*Processor)(nil)

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits every segment into chunks, in order.
// Whitespace-only chunks are dropped.
func (p *Processor) Process(ctx context.Context, segments []string) ([]string, error) {
	var chunks []string
	for _, segment := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks = append(chunks, p.Split(segment)...)
	}
	return chunks, nil
}

// Split splits a single segment into chunks.
func (p *Processor) Split(segment string) []string {
	if strings.TrimSpace(segment) == "" {
		return nil
	}

	runes := []rune(segment)
	spans := p.spans(runes)
	chunks := make([]string, 0, len(spans))
	for _, sp := range spans {
		text := string(runes[sp.start:sp.end])
		if strings.TrimSpace(text) == "" {
			continue
		}
		chunks = append(chunks, text)
	}
	return chunks
}

// span is a half-open rune range.
type span struct {
	start, end int
}

// spans computes chunk boundaries over runes. A chunk ends at the last
// whitespace in its second half when there is one, so words are not cut.
func (p *Processor) spans(runes []rune) []span {
	n := len(runes)
	var out []span

	start := 0
	for start < n {
		end := start + p.chunkSize
		if end >= n {
			out = append(out, span{start, n})
			break
		}

		for i := end; i > start+p.chunkSize/2; i-- {
			if unicode.IsSpace(runes[i-1]) {
				end = i
				break
			}
		}
		out = append(out, span{start, end})

		next := end - p.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return out
}
