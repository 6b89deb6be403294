package normalisers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

type stubNormaliser struct {
	types []domain.FileType
	out   string
	err   error
}

func (s stubNormaliser) SupportedTypes() []domain.FileType { return s.types }

func (s stubNormaliser) Normalise(context.Context, *domain.RawFile) (*driven.NormaliseResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &driven.NormaliseResult{Segments: []string{s.out}}, nil
}

func TestDefaultRegistry_CoversEverySupportedType(t *testing.T) {
	assert.Equal(t, domain.SupportedFileTypes(), NewDefaultRegistry().SupportedTypes())
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry()
	r.Register(stubNormaliser{types: []domain.FileType{domain.FileTypeText}, out: "first"})
	r.Register(stubNormaliser{types: []domain.FileType{domain.FileTypeText}, out: "second"})

	result, err := r.Normalise(context.Background(), &domain.RawFile{FileType: domain.FileTypeText})
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, result.Segments)
}

func TestRegistry_Unsupported(t *testing.T) {
	_, err := NewRegistry().Normalise(context.Background(), &domain.RawFile{FileType: "exe"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_WrapsFailures(t *testing.T) {
	r := NewRegistry()
	r.Register(stubNormaliser{types: []domain.FileType{domain.FileTypePDF}, err: errors.New("bad xref")})

	_, err := r.Normalise(context.Background(), &domain.RawFile{Filename: "a.pdf", FileType: domain.FileTypePDF})
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Contains(t, err.Error(), "bad xref")
}

func TestRegistry_Nil(t *testing.T) {
	_, err := NewRegistry().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDefaultRegistry_EndToEnd(t *testing.T) {
	r := NewDefaultRegistry()

	result, err := r.Normalise(context.Background(), &domain.RawFile{
		Filename: "notes.md",
		FileType: domain.FileTypeMarkdown,
		Content:  []byte("# Notes\n\nBody text."),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Notes\n\nBody text."}, result.Segments)

	_, err = r.Normalise(context.Background(), &domain.RawFile{
		Filename: "broken.docx",
		FileType: domain.FileTypeDOCX,
		Content:  []byte("%CORRUPT"),
	})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}
