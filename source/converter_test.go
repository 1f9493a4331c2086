package source

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semproposal/proposal"
)

const aboutPage = `<html>
<head><title>  About Contoso  </title><style>body{color:red}</style></head>
<body>
<nav><a href="/">Home</a><a href="/careers">Careers</a></nav>
<main>
<h1>About us</h1>
<p>Contoso builds <strong>industrial sensors</strong> for 40 countries.</p>
<script>track()</script>
<ul><li>ISO 27001 certified</li><li>Founded 1998</li></ul>
</main>
<footer>Copyright Contoso</footer>
</body>
</html>`

func TestExtractHTMLTitle(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{"simple title", "<html><head><title>My Page</title></head><body></body></html>", "My Page"},
		{"title with whitespace", "<html><head><title>  Spaced Title  </title></head></html>", "Spaced Title"},
		{"no title", "<html><head></head><body>Content</body></html>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractHTMLTitle([]byte(tt.html)); got != tt.expected {
				t.Errorf("extractHTMLTitle() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConverter_Convert(t *testing.T) {
	res, err := NewConverter().Convert([]byte(aboutPage))
	require.NoError(t, err)

	assert.Equal(t, "About Contoso", res.Title)
	assert.Contains(t, res.Markdown, "# About us")
	assert.Contains(t, res.Markdown, "**industrial sensors**")
	assert.Contains(t, res.Markdown, "ISO 27001 certified")
	assert.NotContains(t, res.Markdown, "track()")
	assert.NotContains(t, res.Markdown, "Careers")
	assert.NotContains(t, res.Markdown, "Copyright")
}

func TestConverter_ConvertWithoutMain(t *testing.T) {
	page := `<html><body><header class="site">Logo</header><div class="sidebar">Links</div>
<div><h1>Pricing</h1><p>Plans start at $10.</p></div></body></html>`

	res, err := NewConverter().Convert([]byte(page))
	require.NoError(t, err)

	assert.Equal(t, "Pricing", res.Title, "falls back to the first H1")
	assert.Contains(t, res.Markdown, "Plans start at $10.")
	assert.NotContains(t, res.Markdown, "Logo")
	assert.NotContains(t, res.Markdown, "Links")
}

func TestConverter_FromHTML(t *testing.T) {
	c := NewConverter()
	fixed := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	c.clock = func() time.Time { return fixed }

	src, err := c.FromHTML("https://contoso.example/about", []byte(aboutPage), 1.7)
	require.NoError(t, err)

	assert.Equal(t, "src-web-contoso-example-about", src.ID)
	assert.Equal(t, proposal.SourceCustomerWebsite, src.Type)
	assert.Equal(t, "About Contoso", src.Title)
	assert.Equal(t, "https://contoso.example/about", src.Reference)
	assert.Equal(t, 1.0, src.RelevanceScore)
	assert.Equal(t, fixed, src.LastUpdated)
	assert.True(t, strings.HasPrefix(src.Excerpt, "About us Contoso builds industrial sensors"), src.Excerpt)
}

func TestConverter_FromHTMLUntitled(t *testing.T) {
	src, err := NewConverter().FromHTML("https://contoso.example/", []byte("<p>hello</p>"), -1)
	require.NoError(t, err)

	assert.Equal(t, "https://contoso.example/", src.Title)
	assert.Equal(t, 0.0, src.RelevanceScore)
	assert.Equal(t, "hello", src.Excerpt)
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		n        int
		expected string
	}{
		{"short text unchanged", "Plain words", 50, "Plain words"},
		{"markup stripped", "## Heading\n\n**bold** and [a link](https://x.example)", 100, "Heading bold and a link"},
		{"cut on word boundary", "alpha beta gamma delta", 13, "alpha beta…"},
		{"trailing punctuation dropped", "alpha, beta gamma", 8, "alpha…"},
		{"no limit", "one two", 0, "one two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excerpt(tt.markdown, tt.n); got != tt.expected {
				t.Errorf("Excerpt() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCleanMarkdown(t *testing.T) {
	got := cleanMarkdown("\n\nline one   \n\n\n\n\n\nline two\t\n")
	assert.Equal(t, "line one\n\n\nline two", got)
}

func TestExtractMarkdownTitle(t *testing.T) {
	assert.Equal(t, "Hello World", extractMarkdownTitle("# Hello World\n\nContent here"))
	assert.Equal(t, "Title Here", extractMarkdownTitle("Some text\n\n# Title Here"))
	assert.Empty(t, extractMarkdownTitle("## Section\n\nContent"))
}
