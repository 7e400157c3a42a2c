package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
	}{
		{
			name:     "emphasis",
			input:    "some **bold** text",
			contains: []string{"<p>some <strong>bold</strong> text</p>"},
		},
		{
			name:     "gfm table",
			input:    "| a | b |\n|---|---|\n| 1 | 2 |\n",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "strikethrough",
			input:    "~~gone~~",
			contains: []string{"<del>gone</del>"},
		},
		{
			name:     "raw html kept",
			input:    "<div class=\"x\">y</div>\n",
			contains: []string{`<div class="x">y</div>`},
		},
		{
			name:     "heading id",
			input:    "## Hello World",
			contains: []string{`<h2 id="hello-world">Hello World</h2>`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.input)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestRenderInline(t *testing.T) {
	got, err := RenderInline("a *b* c")
	require.NoError(t, err)
	assert.Equal(t, "a <em>b</em> c", got)

	got, err = RenderInline("one\n\ntwo")
	require.NoError(t, err)
	assert.Equal(t, "<p>one</p>\n<p>two</p>\n", got)
}

func TestParseAST(t *testing.T) {
	doc := ParseAST("# t\n\npara\n")
	assert.Equal(t, 2, doc.ChildCount())
}
