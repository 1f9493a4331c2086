package copilot

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semproposal/intent"
	"github.com/c360studio/semproposal/proposal"
)

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newTestAssistant(opts ...Option) (*Assistant, *proposal.Store) {
	n := 0
	store := proposal.NewStore(
		proposal.WithClock(func() time.Time { return fixedNow }),
		proposal.WithIDGenerator(func(prefix string) string {
			n++
			return fmt.Sprintf("%s-%d", prefix, n)
		}),
	)
	base := []Option{WithClock(func() time.Time { return fixedNow })}
	return NewAssistant(store, append(base, opts...)...), store
}

func TestHandle_Create(t *testing.T) {
	a, store := newTestAssistant()

	reply := a.Handle("Create proposal for acme corp worth $500K")

	assert.Equal(t, intent.TypeCreateProposal, reply.Intent.Type)
	require.NotEmpty(t, reply.ProposalID)
	assert.Equal(t, "I've created a new proposal for **Acme Corp** worth $500K. Here's the outline:", reply.Text)
	assert.Equal(t, reply.ProposalID, store.ActiveProposalID())

	p, ok := store.GetProposal(reply.ProposalID)
	require.True(t, ok)
	assert.Equal(t, "Acme Corp - Proposal", p.Title)
	assert.Equal(t, "Acme Corp", p.ClientName)
	assert.Equal(t, "CRM-acme-corp", p.ClientID)
	assert.Equal(t, 500000.0, p.OpportunityValue)
	assert.Equal(t, proposal.StatusDraft, p.Status)
	assert.Equal(t, fixedNow.AddDate(0, 0, 30), p.DueDate)
	assert.Equal(t, DefaultOwner, p.Owner)

	require.Len(t, p.Sections, 1)
	sec := p.Sections[0]
	assert.NotEmpty(t, sec.ID)
	assert.Equal(t, "Executive Summary", sec.Title)
	assert.Equal(t, "AI Copilot", sec.ModifiedBy)
	assert.Equal(t, proposal.EstimateWordCount(sec.Content), sec.WordCount)
	assert.Equal(t, 0.6, p.OverallConfidence)
	assert.Equal(t, sec.WordCount, p.TotalWordCount)
}

func TestHandle_CreateUsesConfiguredOwner(t *testing.T) {
	owner := proposal.Person{ID: "u-9", Name: "Riley Chen", Email: "riley@example.com"}
	a, store := newTestAssistant(WithOwner(owner), WithDueInDays(14))

	reply := a.Handle("create a proposal for globex")

	p, _ := store.GetProposal(reply.ProposalID)
	assert.Equal(t, owner, p.Owner)
	assert.Equal(t, fixedNow.AddDate(0, 0, 14), p.DueDate)
	assert.Contains(t, reply.Text, "worth $1000K")
}

func TestHandle_List(t *testing.T) {
	a, _ := newTestAssistant()

	empty := a.Handle("list all proposals")
	assert.Equal(t, emptyListText, empty.Text)

	a.Handle("create proposal for acme")
	a.Handle("create proposal for initech worth 250k")

	reply := a.Handle("show my proposals")
	assert.Equal(t, intent.TypeListProposals, reply.Intent.Type)
	lines := strings.Split(reply.Text, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Here are your proposals:", lines[0])
	assert.Equal(t, "1. **Acme** - Acme - Proposal ($1000K, draft)", lines[2])
	assert.Equal(t, "2. **Initech** - Initech - Proposal ($250K, draft)", lines[3])
}

func TestHandle_View(t *testing.T) {
	a, store := newTestAssistant()
	acme := a.Handle("create proposal for acme corp").ProposalID
	a.Handle("create proposal for globex")
	require.NotEqual(t, acme, store.ActiveProposalID())

	reply := a.Handle("view proposal for ACME")
	assert.Equal(t, acme, reply.ProposalID)
	assert.Equal(t, "Here's the proposal for **Acme Corp**:", reply.Text)
	assert.Equal(t, acme, store.ActiveProposalID())

	miss := a.Handle("open proposal for umbrella")
	assert.Empty(t, miss.ProposalID)
	assert.Contains(t, miss.Text, `"umbrella"`)
}

func TestHandle_Unknown(t *testing.T) {
	a, store := newTestAssistant()

	reply := a.Handle("Tell me a joke")

	assert.Equal(t, intent.TypeUnknown, reply.Intent.Type)
	assert.Equal(t, helpText, reply.Text)
	assert.Empty(t, store.GetAllProposals())
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"acme corp":             "Acme Corp",
		"  contoso  ":           "Contoso",
		"":                      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, DisplayName(in), "DisplayName(%q)", in)
	}
}
