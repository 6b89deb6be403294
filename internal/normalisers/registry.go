package normalisers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/normalisers/csv"
	"github.com/custodia-labs/sercha-server/internal/normalisers/docx"
	"github.com/custodia-labs/sercha-server/internal/normalisers/html"
	"github.com/custodia-labs/sercha-server/internal/normalisers/json"
	"github.com/custodia-labs/sercha-server/internal/normalisers/markdown"
	"github.com/custodia-labs/sercha-server/internal/normalisers/pdf"
	"github.com/custodia-labs/sercha-server/internal/normalisers/plaintext"
	"github.com/custodia-labs/sercha-server/internal/normalisers/pptx"
	"github.com/custodia-labs/sercha-server/internal/normalisers/xlsx"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches files to a normaliser by file type.
// A later registration for the same type replaces the earlier one.
type Registry struct {
	mu     sync.RWMutex
	byType map[domain.FileType]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[domain.FileType]driven.Normaliser)}
}

// NewDefaultRegistry creates a registry with every built-in normaliser.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(csv.New())
	r.Register(json.New())
	r.Register(docx.New())
	r.Register(pptx.New())
	r.Register(xlsx.New())
	r.Register(pdf.New())
	return r
}

// Register adds a normaliser for each of its types.
func (r *Registry) Register(normaliser driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range normaliser.SupportedTypes() {
		r.byType[t] = normaliser
	}
}

// SupportedTypes returns every registered type in sorted order.
func (r *Registry) SupportedTypes() []domain.FileType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]domain.FileType, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Normalise extracts text with the normaliser registered for raw.FileType.
// Failures other than cancellation are reported as domain.ErrExtraction.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	n, ok := r.byType[raw.FileType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, raw.FileType)
	}

	result, err := n.Normalise(ctx, raw)
	switch {
	case err == nil:
		return result, nil
	case ctx.Err() != nil, errors.Is(err, domain.ErrExtraction):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtraction, raw.Filename, err)
	}
}
