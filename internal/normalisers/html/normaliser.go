package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/normalisers/plaintext"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles .html and .htm uploads.
type Normaliser struct{}

// New creates an HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedTypes returns the file types this normaliser handles.
func (n *Normaliser) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeHTML, domain.FileTypeHTM}
}

// Normalise returns one segment per section of the page.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	source, err := plaintext.Decode(raw.Content)
	if err != nil {
		return nil, err
	}

	return &driven.NormaliseResult{Segments: Sections(source)}, nil
}

// sectionBreak marks section starts. Literal form feeds in the page are
// replaced with spaces first.
const sectionBreak = "\f"

// droppedElements never contain readable text.
var droppedElements = compileElements("head", "script", "style", "noscript", "svg", "template")

var (
	comments    = regexp.MustCompile(`(?s)<!--.*?-->`)
	sectionOpen = regexp.MustCompile(`(?i)<h[1-3][\s>]`)
	blockTag    = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article|header|footer|nav|br|hr)\b[^>]*>`)
	cellEnd     = regexp.MustCompile(`(?i)</t[dh]\s*>`)
	anyTag      = regexp.MustCompile(`<[^>]+>`)
	spaces      = regexp.MustCompile(`[ \t\r\v]+`)
)

func compileElements(names ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(names))
	for i, name := range names {
		res[i] = regexp.MustCompile(`(?is)<` + name + `\b[^>]*>.*?</` + name + `\s*>`)
	}
	return res
}

// Sections strips markup and splits the text at h1-h3 headings. Text before
// the first heading forms its own section. Empty sections are omitted.
func Sections(source string) []string {
	source = strings.ReplaceAll(source, sectionBreak, " ")
	for _, re := range droppedElements {
		source = re.ReplaceAllString(source, "")
	}
	source = comments.ReplaceAllString(source, "")
	source = sectionOpen.ReplaceAllStringFunc(source, func(tag string) string {
		return sectionBreak + tag
	})

	var sections []string
	for _, part := range strings.Split(source, sectionBreak) {
		if text := stripHTML(part); text != "" {
			sections = append(sections, text)
		}
	}
	return sections
}

// stripHTML turns a markup fragment into trimmed, non-empty lines.
func stripHTML(fragment string) string {
	fragment = blockTag.ReplaceAllString(fragment, "\n")
	fragment = cellEnd.ReplaceAllString(fragment, " ")
	fragment = anyTag.ReplaceAllString(fragment, "")
	fragment = html.UnescapeString(fragment)

	lines := strings.Split(fragment, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(spaces.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
