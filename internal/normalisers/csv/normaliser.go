// Package csv provides a Normaliser for delimited text tables.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles CSV documents.
type Normaliser struct{}

// New creates a new CSV normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedTypes returns the file types this normaliser handles.
func (n *Normaliser) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeCSV}
}

// Normalise renders the table as text. The first record is the header;
// later records that match its width are written as "header: value"
// pairs so each line stands on its own once chunked.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	source, err := plaintext.Decode(raw.Content)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(source))
	r.Comma = sniffDelimiter(source)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var lines []string
	var headers []string
	for i := 0; ; i++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parsing csv: %v", domain.ErrExtraction, err)
		}

		if headers == nil {
			headers = record
			lines = append(lines, "Headers: "+strings.Join(headers, " | "))
			continue
		}
		if row := formatRow(headers, record); row != "" {
			lines = append(lines, fmt.Sprintf("Row %d: %s", i, row))
		}
	}

	return &driven.NormaliseResult{Segments: []string{strings.Join(lines, "\n")}}, nil
}

func formatRow(headers, record []string) string {
	parts := make([]string, 0, len(record))
	if len(record) == len(headers) {
		for j, cell := range record {
			if strings.TrimSpace(cell) != "" {
				parts = append(parts, headers[j]+": "+cell)
			}
		}
		return strings.Join(parts, ", ")
	}
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			parts = append(parts, cell)
		}
	}
	return strings.Join(parts, " | ")
}

// sniffDelimiter picks the most frequent candidate delimiter on the first line.
func sniffDelimiter(source string) rune {
	first, _, _ := strings.Cut(source, "\n")
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if c := strings.Count(first, string(d)); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}
