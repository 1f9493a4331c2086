// Package source turns external material into proposal sources. Web pages
// are fetched, stripped to their main content, and converted to Markdown so
// a short excerpt can back the sections that cite them.
package source

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"

	"github.com/c360studio/semproposal/proposal"
)

// DefaultExcerptLength is the excerpt size in runes.
const DefaultExcerptLength = 280

var (
	scriptRe         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	excessiveLinesRe = regexp.MustCompile(`\n{4,}`)
	markupRe         = regexp.MustCompile("[#*_`>|]+|!?\\[([^\\]]*)\\]\\([^)]*\\)")
)

// ConvertResult is a page converted to Markdown.
type ConvertResult struct {
	Title    string
	Markdown string
}

// Converter converts HTML pages to Markdown and sources.
type Converter struct {
	converter     *md.Converter
	excerptLength int
	clock         func() time.Time
}

// NewConverter creates a converter with GitHub-flavored output.
func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Converter{
		converter:     converter,
		excerptLength: DefaultExcerptLength,
		clock:         time.Now,
	}
}

// Convert extracts the title and main content of a page as Markdown.
func (c *Converter) Convert(htmlContent []byte) (*ConvertResult, error) {
	title := extractHTMLTitle(htmlContent)

	markdown, err := c.converter.ConvertString(extractMainContent(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("convert html: %w", err)
	}
	markdown = cleanMarkdown(markdown)

	if title == "" {
		title = extractMarkdownTitle(markdown)
	}
	return &ConvertResult{Title: title, Markdown: markdown}, nil
}

// FromHTML builds a customer website source for the page at pageURL.
// Relevance is clamped to [0,1]. The page URL stands in for a missing title.
func (c *Converter) FromHTML(pageURL string, htmlContent []byte, relevance float64) (*proposal.Source, error) {
	res, err := c.Convert(htmlContent)
	if err != nil {
		return nil, err
	}

	title := res.Title
	if title == "" {
		title = pageURL
	}
	return &proposal.Source{
		ID:             SourceID(pageURL),
		Type:           proposal.SourceCustomerWebsite,
		Title:          title,
		Reference:      pageURL,
		Excerpt:        Excerpt(res.Markdown, c.excerptLength),
		LastUpdated:    c.clock(),
		RelevanceScore: clamp01(relevance),
	}, nil
}

// Excerpt flattens Markdown to plain prose and cuts it to at most n runes
// on a word boundary, marking the cut with an ellipsis.
func Excerpt(markdown string, n int) string {
	plain := markupRe.ReplaceAllString(markdown, "$1")
	plain = strings.Join(strings.Fields(plain), " ")
	if n <= 0 || utf8.RuneCountInString(plain) <= n {
		return plain
	}

	runes := []rune(plain)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func extractHTMLTitle(content []byte) string {
	doc, err := html.Parse(strings.NewReader(string(content)))
	if err != nil {
		return ""
	}
	if n := findElement(doc, "title"); n != nil && n.FirstChild != nil {
		return strings.TrimSpace(n.FirstChild.Data)
	}
	return ""
}

// extractMainContent prefers main, article, or [role=main]; otherwise it
// strips page chrome and returns the body.
func extractMainContent(content []byte) string {
	doc, err := html.Parse(strings.NewReader(string(content)))
	if err != nil {
		return basicHTMLCleanup(string(content))
	}

	removeElements(doc, []string{"script", "style", "noscript", "template"})
	for _, selector := range []string{"main", "article", "[role=main]"} {
		if node := findElement(doc, selector); node != nil {
			return renderNode(node)
		}
	}

	removeElements(doc, []string{
		"nav", "header", "footer", "aside", "iframe", "object", "embed",
		"form", "input", "button",
	})
	removeByClass(doc, []string{
		"nav", "navbar", "navigation", "sidebar", "menu", "footer", "header",
		"ad", "advertisement", "cookie", "cookie-banner", "social", "share",
		"breadcrumb",
	})
	if body := findElement(doc, "body"); body != nil {
		return renderNode(body)
	}
	return renderNode(doc)
}

// findElement returns the first element matching a tag name or a simple
// [attr=value] selector.
func findElement(n *html.Node, selector string) *html.Node {
	if n.Type == html.ElementNode && matchesSelector(n, selector) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, selector); found != nil {
			return found
		}
	}
	return nil
}

func matchesSelector(n *html.Node, selector string) bool {
	if strings.HasPrefix(selector, "[") && strings.HasSuffix(selector, "]") {
		key, val, ok := strings.Cut(strings.Trim(selector, "[]"), "=")
		if !ok {
			return false
		}
		for _, a := range n.Attr {
			if a.Key == key && a.Val == val {
				return true
			}
		}
		return false
	}
	return n.Data == selector
}

func removeElements(n *html.Node, tags []string) {
	tagSet := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tagSet[tag] = true
	}
	removeMatching(n, func(node *html.Node) bool { return tagSet[node.Data] })
}

func removeByClass(n *html.Node, classes []string) {
	classSet := make(map[string]bool, len(classes))
	for _, class := range classes {
		classSet[class] = true
	}
	removeMatching(n, func(node *html.Node) bool {
		for _, a := range node.Attr {
			if a.Key != "class" {
				continue
			}
			for _, c := range strings.Fields(strings.ToLower(a.Val)) {
				if classSet[c] {
					return true
				}
			}
		}
		return false
	})
}

// removeMatching detaches every element for which match is true. Matched
// subtrees are not descended into.
func removeMatching(n *html.Node, match func(*html.Node) bool) {
	var doomed []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && match(node) {
			doomed = append(doomed, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	for _, node := range doomed {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

func renderNode(n *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

func basicHTMLCleanup(content string) string {
	content = scriptRe.ReplaceAllString(content, "")
	return styleRe.ReplaceAllString(content, "")
}

func cleanMarkdown(content string) string {
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractMarkdownTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
