// Package json provides a Normaliser that flattens JSON into path: value lines.
package json

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles JSON documents.
type Normaliser struct{}

// New creates a new JSON normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedTypes returns the file types this normaliser handles.
func (n *Normaliser) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeJSON}
}

// Normalise flattens the document into one line per leaf value.
// Object keys are visited in sorted order.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	source, err := plaintext.Decode(raw.Content)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(source))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: parsing json: %v", domain.ErrExtraction, err)
	}

	var buf bytes.Buffer
	flatten(&buf, "", data)
	return &driven.NormaliseResult{Segments: []string{strings.TrimSpace(buf.String())}}, nil
}

func flatten(buf *bytes.Buffer, prefix string, v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			flatten(buf, path, t[k])
		}
	case []any:
		for i, item := range t {
			flatten(buf, fmt.Sprintf("%s[%d]", prefix, i), item)
		}
	case nil:
		writeLeaf(buf, prefix, "null")
	default:
		writeLeaf(buf, prefix, fmt.Sprint(t))
	}
}

func writeLeaf(buf *bytes.Buffer, path, value string) {
	if path != "" {
		buf.WriteString(path)
		buf.WriteString(": ")
	}
	buf.WriteString(value)
	buf.WriteByte('\n')
}
