// Package xlsx provides a Normaliser for Excel workbooks using excelize.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles XLSX workbooks.
type Normaliser struct{}

// New creates a new XLSX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedTypes returns the file types this normaliser handles.
func (n *Normaliser) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeXLSX}
}

// Normalise returns one segment per non-empty sheet. Each row becomes a
// line of its non-empty cells separated by " | ".
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: opening workbook: %v", domain.ErrExtraction, err)
	}
	defer f.Close()

	var segments []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: reading sheet %s: %v", domain.ErrExtraction, sheet, err)
		}

		var b strings.Builder
		for _, row := range rows {
			if line := joinCells(row); line != "" {
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}
		if b.Len() == 0 {
			continue
		}
		segments = append(segments, "Sheet: "+sheet+"\n"+strings.TrimRight(b.String(), "\n"))
	}

	return &driven.NormaliseResult{Segments: segments}, nil
}

func joinCells(row []string) string {
	cells := make([]string, 0, len(row))
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	return strings.Join(cells, " | ")
}
