// Package plaintext provides a Normaliser for plain text uploads.
package plaintext

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedTypes returns the file types this normaliser handles.
func (n *Normaliser) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeText}
}

// Normalise decodes the text as a single segment.
// A byte order mark selects UTF-16; otherwise the content is read as UTF-8
// with invalid sequences dropped.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content, err := Decode(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", domain.ErrExtraction, raw.Filename, err)
	}

	return &driven.NormaliseResult{Segments: []string{content}}, nil
}

// Decode converts raw bytes to a UTF-8 string, honouring a leading BOM.
func Decode(b []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, b)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(out), ""), nil
}
