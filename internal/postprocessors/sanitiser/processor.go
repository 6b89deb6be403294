// Package sanitiser cleans extracted text so embedding providers accept it.
package sanitiser

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// replacer maps characters that providers reject or tokenise poorly
// to plain ASCII spellings.
var replacer = strings.NewReplacer(
	"\x00", "", "\ufffd", "", "\u200b", "", "\u200c", "", "\u200d", "", "\ufeff", "",
	"\u2028", " ", "\u2029", " ",
	"√", "sqrt", "∑", "sum", "∏", "product", "∫", "integral", "∂", "d", "∇", "grad",
	"∈", " in ", "∉", " not in ", "⊂", " subset ", "⊆", " subset ", "∩", " and ", "∪", " or ",
	"≤", "<=", "≥", ">=", "≠", "!=", "≈", "~=", "∞", "inf", "±", "+/-", "×", "x", "÷", "/",
	"·", "*", "°", " deg",
	"α", "alpha", "β", "beta", "γ", "gamma", "δ", "delta", "ε", "epsilon", "ζ", "zeta",
	"η", "eta", "θ", "theta", "ι", "iota", "κ", "kappa", "λ", "lambda", "μ", "mu",
	"ν", "nu", "ξ", "xi", "π", "pi", "ρ", "rho", "σ", "sigma", "τ", "tau",
	"υ", "upsilon", "φ", "phi", "χ", "chi", "ψ", "psi", "ω", "omega",
	"Γ", "Gamma", "Δ", "Delta", "Θ", "Theta", "Λ", "Lambda", "Σ", "Sigma",
	"Φ", "Phi", "Ψ", "Psi", "Ω", "Omega",
	"→", "->", "←", "<-", "↔", "<->", "⇒", "=>", "⇐", "<=",
)

var (
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// Clean normalises text to NFKC, spells out symbols, replaces
// non-printable characters with spaces and collapses whitespace.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = norm.NFKC.String(text)
	text = replacer.Replace(text)
	text = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == ' ' {
			return r
		}
		if r == '\r' {
			return '\n'
		}
		if !unicode.IsPrint(r) {
			return ' '
		}
		return r
	}, text)
	text = multiSpaces.ReplaceAllString(text, " ")
	text = multiNewlines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// Truncate caps text at limit characters, cutting at a sentence end when
// one falls in the last fifth of the allowance.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}

	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, ". "); i >= 0 && len([]rune(cut[:i])) > limit*4/5 {
		return cut[:i+1]
	}
	return cut
}

// Processor is a PostProcessor that cleans every segment and drops
// segments left empty.
type Processor struct{}

var _ driven.PostProcessor = (*Processor)(nil)

// New creates a sanitiser processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "sanitiser"
}

// Process cleans segments in order.
func (p *Processor) Process(_ context.Context, segments []string) ([]string, error) {
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		if cleaned := Clean(s); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out, nil
}
