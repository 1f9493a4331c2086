package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semproposal/proposal"
)

func newStore() *proposal.Store {
	n := 0
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	return proposal.NewStore(
		proposal.WithClock(func() time.Time { return now }),
		proposal.WithIDGenerator(func(prefix string) string {
			n++
			return fmt.Sprintf("%s-%d", prefix, n)
		}),
	)
}

func seed(t *testing.T, s *proposal.Store) string {
	t.Helper()
	id := s.CreateProposal(proposal.Proposal{
		Title:      "Contoso - Proposal",
		ClientName: "Contoso",
		Status:     proposal.StatusDraft,
		Sections: []proposal.Section{
			{Title: "Executive Summary", Confidence: 0.9, ApprovalState: proposal.ApprovalDraft, Order: 1, WordCount: 120},
			{Title: "Pricing", Confidence: 0.4, ApprovalState: proposal.ApprovalDraft, Order: 2, WordCount: 80},
		},
	})
	p, _ := s.GetProposal(id)
	require.NoError(t, s.ApproveSection(id, p.Sections[0].ID, ""))
	_, err := s.AddQuestion(id, proposal.OpenQuestion{Question: "Budget?", Priority: proposal.PriorityHigh})
	require.NoError(t, err)
	q, err := s.AddQuestion(id, proposal.OpenQuestion{Question: "Start date?", Priority: proposal.PriorityLow})
	require.NoError(t, err)
	require.NoError(t, s.DismissQuestion(id, q))
	_, err = s.AddNudge(id, proposal.Nudge{Message: "Pricing looks thin", Priority: proposal.PriorityMedium})
	require.NoError(t, err)
	return id
}

func TestCollector_Mutations(t *testing.T) {
	s := newStore()
	c := NewCollector(s)
	c.Start()
	c.Start()

	id := seed(t, s)
	require.NoError(t, s.UpdateProposal(id, proposal.ProposalUpdate{Status: proposal.Ptr(proposal.StatusInReview)}))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.mutations.WithLabelValues(string(proposal.OpCreateProposal))))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.mutations.WithLabelValues(string(proposal.OpAddQuestion))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.mutations.WithLabelValues(string(proposal.OpUpdateProposal))))

	c.Stop()
	require.NoError(t, s.DeleteProposal(id))
	assert.Zero(t, testutil.ToFloat64(c.mutations.WithLabelValues(string(proposal.OpDeleteProposal))))
}

func TestCollector_Gauges(t *testing.T) {
	s := newStore()
	id := seed(t, s)
	c := NewCollector(s)

	expected := `
# HELP semproposal_sections Sections across all proposals by approval state.
# TYPE semproposal_sections gauge
semproposal_sections{state="approved"} 1
semproposal_sections{state="draft"} 1
semproposal_sections{state="needs_revision"} 0
semproposal_sections{state="pending"} 0
semproposal_sections{state="rejected"} 0
# HELP semproposal_open_questions Undismissed open questions by priority.
# TYPE semproposal_open_questions gauge
semproposal_open_questions{priority="high"} 1
semproposal_open_questions{priority="low"} 0
semproposal_open_questions{priority="medium"} 0
# HELP semproposal_active_nudges Undismissed nudges by priority.
# TYPE semproposal_active_nudges gauge
semproposal_active_nudges{priority="high"} 0
semproposal_active_nudges{priority="low"} 0
semproposal_active_nudges{priority="medium"} 1
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"semproposal_sections", "semproposal_open_questions", "semproposal_active_nudges"))

	perProposal := fmt.Sprintf(`
# HELP semproposal_proposal_overall_confidence Mean section confidence of a proposal.
# TYPE semproposal_proposal_overall_confidence gauge
semproposal_proposal_overall_confidence{client="Contoso",proposal_id=%q} 0.65
# HELP semproposal_proposal_completion_percent Share of approved sections, 0-100.
# TYPE semproposal_proposal_completion_percent gauge
semproposal_proposal_completion_percent{proposal_id=%q} 50
# HELP semproposal_proposal_words Total word count of a proposal.
# TYPE semproposal_proposal_words gauge
semproposal_proposal_words{proposal_id=%q} 200
`, id, id, id)
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(perProposal),
		"semproposal_proposal_overall_confidence", "semproposal_proposal_completion_percent", "semproposal_proposal_words"))

	assert.Equal(t, 8, testutil.CollectAndCount(c, "semproposal_proposals"))
}

func TestCollector_SaveStats(t *testing.T) {
	c := NewCollector(newStore(), WithSaveStats(func() (int, int, error) { return 7, 2, nil }))

	expected := `
# HELP semproposal_autosaves_total Snapshot autosaves by result.
# TYPE semproposal_autosaves_total counter
semproposal_autosaves_total{result="failure"} 2
semproposal_autosaves_total{result="success"} 7
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "semproposal_autosaves_total"))
}

func TestServer(t *testing.T) {
	s := newStore()
	seed(t, s)
	reg, err := NewRegistry(NewCollector(s))
	require.NoError(t, err)

	srv, err := Listen("127.0.0.1:0", reg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + srv.Addr() + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		body = string(data)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	assert.Contains(t, body, `semproposal_proposals{status="draft"} 1`)
	assert.Contains(t, body, "go_goroutines")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
