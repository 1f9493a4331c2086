package document

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semproposal/proposal"
)

func sampleProposal() *proposal.Proposal {
	return &proposal.Proposal{
		ID:               "prop-1",
		Title:            "Contoso - Proposal",
		ClientName:       "Contoso",
		ClientID:         "CRM-contoso",
		OpportunityValue: 1250000,
		Status:           proposal.StatusInReview,
		DueDate:          time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		Owner:            proposal.Person{Name: "Dana Reyes"},
		Stakeholders:     []proposal.Stakeholder{{Name: "Ana Ruiz", Title: "CIO", Email: "ana@contoso.example"}},
		Sections: []proposal.Section{
			{ID: "s2", Title: "Pricing & Commercials", Content: "Fixed fee.", Confidence: 0.4, ApprovalState: proposal.ApprovalNeedsRevision, Order: 2, ReviewerNotes: "Add tiers"},
			{ID: "s1", Title: "Executive Summary", Content: "We propose a phased rollout.", Confidence: 0.9, ApprovalState: proposal.ApprovalApproved, Order: 1,
				Sources: []proposal.Source{
					{ID: "src-1", Type: proposal.SourceCustomerWebsite, Title: "Contoso About", Reference: "https://contoso.example/about"},
					{ID: "src-2", Type: proposal.SourceCRM, Title: "Opportunity", Reference: "OPP-42"},
				}},
		},
		OpenQuestions: []proposal.OpenQuestion{
			{ID: "q1", Question: "Budget confirmed?", Rationale: "Pricing depends on it", Priority: proposal.PriorityHigh},
			{ID: "q2", Question: "Dismissed one", Priority: proposal.PriorityHigh, Dismissed: true},
			{ID: "q3", Question: "Low priority", Priority: proposal.PriorityLow},
		},
		OverallConfidence: 0.65,
		TotalWordCount:    7,
	}
}

func TestAssemble(t *testing.T) {
	doc := Assemble(sampleProposal())

	assert.Equal(t, "prop-1", doc.ProposalID)
	assert.Equal(t, "Contoso - Proposal", doc.Title)

	expected := []string{
		"# Contoso - Proposal",
		"| Client | Contoso |",
		"| Opportunity Value | $1,250,000 |",
		"| Due | 2026-07-01 |",
		"| Overall Confidence | 65% |",
		"| Completion | 50% |",
		"- Ana Ruiz, CIO (ana@contoso.example)",
		"1. [Executive Summary](#executive-summary)",
		"2. [Pricing & Commercials](#pricing--commercials)",
		"_Approved · confidence 90%_",
		"> **Reviewer notes:** Add tiers",
		"- [Contoso About](https://contoso.example/about) (customer_website)",
		"- Opportunity (crm)",
		"## Open Questions",
		"- **Budget confirmed?**: Pricing depends on it",
		"**Status:** in_review",
	}
	for _, want := range expected {
		assert.Contains(t, doc.Markdown, want)
	}
	assert.NotContains(t, doc.Markdown, "Dismissed one")
	assert.NotContains(t, doc.Markdown, "Low priority")

	summary := strings.Index(doc.Markdown, "## Executive Summary")
	pricing := strings.Index(doc.Markdown, "## Pricing & Commercials")
	require.True(t, summary > 0 && pricing > 0)
	assert.Less(t, summary, pricing, "sections follow Order, not storage order")
}

func TestTransformer_Options(t *testing.T) {
	doc := NewTransformer(Options{}).Transform(sampleProposal())

	assert.NotContains(t, doc.Markdown, "**Sources:**")
	assert.NotContains(t, doc.Markdown, "## Open Questions")
}

func TestAssemble_EmptyProposal(t *testing.T) {
	doc := Assemble(&proposal.Proposal{Title: "Empty", Status: proposal.StatusDraft})

	assert.NotContains(t, doc.Markdown, "## Contents")
	assert.Contains(t, doc.Markdown, "| Completion | 0% |")
	assert.NotContains(t, doc.Markdown, "| Due |")
}

func TestFormatUSD(t *testing.T) {
	tests := map[float64]string{
		0:        "$0",
		999:      "$999",
		1000:     "$1,000",
		500000:   "$500,000",
		2500000:  "$2,500,000",
		-42000.4: "-$42,000",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatUSD(in), "formatUSD(%v)", in)
	}
}

func TestAnchor(t *testing.T) {
	tests := map[string]string{
		"Executive Summary":     "executive-summary",
		"Security & Compliance": "security--compliance",
		"Risks & Mitigations":   "risks--mitigations",
		"Next_Steps 2":          "next-steps-2",
	}
	for in, want := range tests {
		assert.Equal(t, want, anchor(in), "anchor(%q)", in)
	}
}
