// Package markdown provides a Normaliser for Markdown uploads.
// Documents are parsed with goldmark and rendered back to plain text,
// dropping markup, raw HTML and link targets.
package markdown

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct {
	md goldmark.Markdown
}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

// SupportedTypes returns the file types this normaliser handles.
func (n *Normaliser) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeMarkdown}
}

// Normalise converts Markdown to plain text as a single segment.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	source, err := plaintext.Decode(raw.Content)
	if err != nil {
		return nil, err
	}

	return &driven.NormaliseResult{Segments: []string{n.toText([]byte(source))}}, nil
}

var multiNewlines = regexp.MustCompile(`\n{3,}`)

// toText walks the document and keeps only its textual content.
func (n *Normaliser) toText(src []byte) string {
	doc := n.md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		switch v := node.(type) {
		case *ast.HTMLBlock, *ast.RawHTML, *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := node.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(src))
				}
				buf.WriteString("\n\n")
			}
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			if entering {
				buf.Write(v.Label(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				buf.Write(v.Segment.Value(src))
				if v.SoftLineBreak() || v.HardLineBreak() {
					buf.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				buf.Write(v.Value)
			}
		}

		if !entering && node.Type() == ast.TypeBlock && node.Kind() != ast.KindDocument {
			switch node.Kind() {
			case ast.KindList, ast.KindListItem:
				buf.WriteByte('\n')
			default:
				buf.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})

	out := multiNewlines.ReplaceAllString(buf.String(), "\n\n")
	return strings.TrimSpace(out)
}
