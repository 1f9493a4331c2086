package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/c360studio/semproposal/proposal"
)

var testNow = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *proposal.Store {
	t.Helper()
	n := 0
	return proposal.NewStore(
		proposal.WithClock(func() time.Time { return testNow }),
		proposal.WithIDGenerator(func(prefix string) string {
			n++
			return fmt.Sprintf("%s-%d", prefix, n)
		}),
	)
}

func seedProposal(s *proposal.Store, client string) string {
	content := "Summary for " + client
	return s.CreateProposal(proposal.Proposal{
		Title:      client + " - Proposal",
		ClientName: client,
		Status:     proposal.StatusDraft,
		DueDate:    testNow.AddDate(0, 0, 30),
		Owner:      proposal.Person{ID: "user-1", Name: "Dana Reyes"},
		Sections: []proposal.Section{{
			Title:         "Executive Summary",
			Content:       content,
			Confidence:    0.7,
			ApprovalState: proposal.ApprovalDraft,
			Order:         1,
			WordCount:     proposal.EstimateWordCount(content),
		}},
	})
}
