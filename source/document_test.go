package source

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semproposal/proposal"
)

func newTestConverter() *Converter {
	c := NewConverter()
	c.clock = func() time.Time { return time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC) }
	return c
}

func TestFromMarkdown_Frontmatter(t *testing.T) {
	content := `---
title: Discovery call with the Contoso CTO
type: meeting_notes
author: Jennifer Park
updated: 2024-12-12
reference: https://crm.example.com/activities/4411
---

# Notes

Sarah wants **zero downtime** for the ERP cutover.
`
	src, err := newTestConverter().FromMarkdown("notes/discovery.md", []byte(content), 0.9)
	require.NoError(t, err)

	assert.Equal(t, "Discovery call with the Contoso CTO", src.Title)
	assert.Equal(t, proposal.SourceMeetingNotes, src.Type)
	assert.Equal(t, "Jennifer Park", src.Author)
	assert.Equal(t, "https://crm.example.com/activities/4411", src.Reference)
	assert.True(t, src.LastUpdated.Equal(time.Date(2024, 12, 12, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0.9, src.RelevanceScore)
	assert.Equal(t, "Notes Sarah wants zero downtime for the ERP cutover.", src.Excerpt)
	assert.True(t, strings.HasPrefix(src.ID, "src-doc-discovery-"))
}

func TestFromMarkdown_Defaults(t *testing.T) {
	c := newTestConverter()

	src, err := c.FromMarkdown("/tmp/Security FAQ.md", []byte("# Security FAQ\n\nAll data is encrypted at rest.\n"), 1.5)
	require.NoError(t, err)
	assert.Equal(t, "Security FAQ", src.Title)
	assert.Equal(t, proposal.SourceDocument, src.Type)
	assert.Equal(t, "/tmp/Security FAQ.md", src.Reference)
	assert.Equal(t, "All data is encrypted at rest.", src.Excerpt, "repeated title is dropped")
	assert.Equal(t, 1.0, src.RelevanceScore)
	assert.True(t, src.LastUpdated.Equal(c.clock()))

	src, err = c.FromMarkdown("pricing_notes.md", []byte("Discount capped at 12%.\r\n"), 0.5)
	require.NoError(t, err)
	assert.Equal(t, "pricing_notes", src.Title)
	assert.Equal(t, "Discount capped at 12%.", src.Excerpt)
}

func TestFromMarkdown_Errors(t *testing.T) {
	c := newTestConverter()

	_, err := c.FromMarkdown("a.md", []byte("---\ntitle: x\nbody without close"), 0.5)
	assert.ErrorContains(t, err, "no closing delimiter")

	_, err = c.FromMarkdown("a.md", []byte("---\ntitle: [unterminated\n---\nbody"), 0.5)
	assert.ErrorContains(t, err, "parse frontmatter")

	_, err = c.FromMarkdown("a.md", []byte("---\ntype: rumor\n---\nbody"), 0.5)
	assert.ErrorContains(t, err, `unknown source type "rumor"`)
}

func TestDocumentID(t *testing.T) {
	content := []byte("same")
	a := DocumentID("notes/Discovery Call.md", content)
	b := DocumentID("other/discovery_call.md", content)

	assert.Equal(t, a, b, "name normalizes and path is ignored")
	assert.Regexp(t, `^src-doc-discovery-call-[0-9a-f]{12}$`, a)
	assert.NotEqual(t, a, DocumentID("notes/Discovery Call.md", []byte("changed")))
	assert.Regexp(t, `^src-doc-[0-9a-f]{12}$`, DocumentID("!!!.md", content))
}
