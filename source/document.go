package source

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semproposal/proposal"
)

// Frontmatter is the optional YAML header of a local Markdown source.
//
//	---
//	title: Discovery call with the Contoso CTO
//	type: meeting_notes
//	author: Jennifer Park
//	updated: 2024-12-12
//	reference: https://crm.example.com/activities/4411
//	---
type Frontmatter struct {
	Title     string    `yaml:"title"`
	Type      string    `yaml:"type"`
	Author    string    `yaml:"author"`
	Updated   time.Time `yaml:"updated"`
	Reference string    `yaml:"reference"`
}

// FromMarkdown builds a source from a local Markdown file such as exported
// meeting notes or a wiki page. Frontmatter fields win; otherwise the first
// H1 or the file name becomes the title and the type is document.
func (c *Converter) FromMarkdown(filename string, content []byte, relevance float64) (*proposal.Source, error) {
	fm, body, err := splitFrontmatter(string(content))
	if err != nil {
		return nil, err
	}
	body = cleanMarkdown(body)

	sourceType := proposal.SourceDocument
	if fm.Type != "" {
		sourceType = proposal.SourceType(fm.Type)
		if !sourceType.IsValid() {
			return nil, fmt.Errorf("%s: unknown source type %q", filepath.Base(filename), fm.Type)
		}
	}

	title := fm.Title
	if title == "" {
		title = extractMarkdownTitle(body)
	}
	if title == "" {
		base := filepath.Base(filename)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	reference := fm.Reference
	if reference == "" {
		reference = filename
	}
	updated := fm.Updated
	if updated.IsZero() {
		updated = c.clock()
	}

	return &proposal.Source{
		ID:             DocumentID(filename, content),
		Type:           sourceType,
		Title:          title,
		Reference:      reference,
		Excerpt:        Excerpt(stripTitle(body, title), c.excerptLength),
		LastUpdated:    updated,
		RelevanceScore: clamp01(relevance),
		Author:         fm.Author,
	}, nil
}

// splitFrontmatter separates a leading YAML block from the body. Content
// without an opening delimiter is all body.
func splitFrontmatter(content string) (Frontmatter, string, error) {
	var fm Frontmatter
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, "---\n") {
		return fm, content, nil
	}

	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end == -1 {
		return fm, "", fmt.Errorf("parse frontmatter: no closing delimiter")
	}
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return fm, "", fmt.Errorf("parse frontmatter: %w", err)
	}

	body := rest[end+len("\n---"):]
	return fm, strings.TrimLeft(body, "\n"), nil
}

// stripTitle drops a leading H1 that repeats the title.
func stripTitle(body, title string) string {
	first, rest, _ := strings.Cut(body, "\n")
	first = strings.TrimSpace(first)
	if strings.HasPrefix(first, "# ") && strings.TrimSpace(first[2:]) == title {
		return rest
	}
	return body
}

// DocumentID derives a stable id from the file name and a content hash, so
// re-importing an unchanged file replaces rather than duplicates it:
//
//	notes/Discovery Call.md -> src-doc-discovery-call-3f2a9c0d41be
func DocumentID(filename string, content []byte) string {
	base := filepath.Base(filename)
	name := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_', r == '.':
			return '-'
		default:
			return -1
		}
	}, name)
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}
	name = strings.Trim(name, "-")

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])[:12]
	if name == "" {
		return "src-doc-" + hash
	}
	return "src-doc-" + name + "-" + hash
}
