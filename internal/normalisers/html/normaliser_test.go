package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

func TestNormaliser_SupportedTypes(t *testing.T) {
	assert.ElementsMatch(t, []domain.FileType{domain.FileTypeHTML, domain.FileTypeHTM}, New().SupportedTypes())
}

func TestNormaliser_Normalise(t *testing.T) {
	raw := &domain.RawFile{
		Filename: "guide.html",
		FileType: domain.FileTypeHTML,
		Content: []byte(`<!doctype html>
<html><head><title>Guide</title><style>p { margin: 0 }</style></head>
<body>
<nav><a href="/">Home</a></nav>
<h1>Install</h1><p>Download the &quot;server&quot; binary.</p>
<script>track();</script>
<h2 id="run">Run</h2><p>Start it with <code>serve</code>.</p>
<h4>Flags</h4><ul><li>--addr</li><li>--config</li></ul>
</body></html>`),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Home",
		"Install\nDownload the \"server\" binary.",
		"Run\nStart it with serve.\nFlags\n--addr\n--config",
	}, result.Segments)
}

func TestNormaliser_Normalise_Nil(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormaliser_Normalise_NoText(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawFile{
		FileType: domain.FileTypeHTML,
		Content:  []byte(`<html><head><title>x</title></head><body><img src="a.png"></body></html>`),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Segments)
}

func TestSections(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "no headings is one section",
			input: "<p>One</p><p>Two</p>",
			want:  []string{"One\nTwo"},
		},
		{
			name:  "each h1 to h3 opens a section",
			input: "<h1>A</h1>a<h2>B</h2>b<h3 class=x>C</h3>c",
			want:  []string{"A\na", "B\nb", "C\nc"},
		},
		{
			name:  "lower headings stay inside",
			input: "<h2>A</h2><h5>detail</h5><p>text</p>",
			want:  []string{"A\ndetail\ntext"},
		},
		{
			name:  "header and hr are not headings",
			input: "<header>Top</header><hr><p>Body</p>",
			want:  []string{"Top\nBody"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sections(tt.input))
		})
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"nested inline tags", "<div><p><strong>Bold</strong> text</p></div>", "Bold text"},
		{"line breaks", "Line 1<br>Line 2<br/>Line 3", "Line 1\nLine 2\nLine 3"},
		{"entities", "<p>&lt;tag&gt; &amp; &quot;quotes&quot;</p>", "<tag> & \"quotes\""},
		{"link text kept", `<a href="https://example.com">Click here</a>`, "Click here"},
		{"image dropped", `<p>See <img src="image.png" alt="Image"> here</p>`, "See here"},
		{"table cells", "<table><tr><td>Cell 1</td><td>Cell 2</td></tr></table>", "Cell 1 Cell 2"},
		{"pre is a block", "<pre>code</pre><p>after</p>", "code\nafter"},
		{"whitespace collapsed", "<p>  a \t  b  </p>", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripHTML(tt.input))
		})
	}
}

func TestSections_DropsNonContent(t *testing.T) {
	input := `<p>Before</p><!-- note --><noscript>enable js</noscript>` +
		`<svg width="10"><text>icon</text></svg><template><p>hidden</p></template><p>After</p>`
	assert.Equal(t, []string{"Before\nAfter"}, Sections(input))
}
