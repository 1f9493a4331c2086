package proposal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// StandardSectionConfidence is the confidence given to template sections.
const StandardSectionConfidence = 0.5

type standardSection struct {
	title   string
	starter func(client string) string
}

// standardSections is the canonical proposal outline, in order.
var standardSections = []standardSection{
	{"Executive Summary", func(c string) string {
		return fmt.Sprintf("This proposal outlines our recommended approach for %s.", c)
	}},
	{"Business Context", func(c string) string {
		return fmt.Sprintf("Background on %s's goals, constraints, and success criteria.", c)
	}},
	{"Requirements", func(string) string {
		return "Key functional and non-functional requirements captured from discovery."
	}},
	{"Solution Overview", func(string) string {
		return "High-level solution approach and architecture overview."
	}},
	{"Security & Compliance", func(string) string {
		return "Security controls, data protection, and compliance alignment."
	}},
	{"Implementation Plan", func(string) string {
		return "Phases, milestones, timeline, and dependencies."
	}},
	{"Pricing & Commercials", func(string) string {
		return "Commercial model, pricing assumptions, and options."
	}},
	{"Risks & Mitigations", func(string) string {
		return "Key risks and mitigations (technical, schedule, compliance)."
	}},
	{"Next Steps", func(string) string {
		return "Decision points, stakeholder actions, and proposed schedule."
	}},
}

// StandardSectionTitles returns the canonical section titles in order.
func StandardSectionTitles() []string {
	titles := make([]string, len(standardSections))
	for i, ss := range standardSections {
		titles[i] = ss.title
	}
	return titles
}

// ApplyStandardTemplate appends every canonical section whose title is not
// already present (case-insensitive) as a draft with a starter paragraph,
// then renumbers Order to 1..N keeping existing relative order. It returns
// the number of sections added; a second call adds none.
func (s *Store) ApplyStandardTemplate(proposalID string) (int, error) {
	added := 0
	err := s.mutate(OpApplyTemplate, proposalID, func(p *Proposal, now time.Time) error {
		fold := cases.Fold()
		existing := make(map[string]bool, len(p.Sections))
		for _, sec := range p.Sections {
			existing[fold.String(sec.Title)] = true
		}

		for _, ss := range standardSections {
			if existing[fold.String(ss.title)] {
				continue
			}
			content := ss.starter(p.ClientName)
			p.Sections = append(p.Sections, Section{
				ID:            s.newID("sec"),
				Title:         ss.title,
				Content:       content,
				Confidence:    StandardSectionConfidence,
				Sources:       []Source{},
				ApprovalState: ApprovalDraft,
				Order:         len(p.Sections) + 1,
				LastModified:  now,
				ModifiedBy:    p.Owner.Name,
				WordCount:     EstimateWordCount(content),
			})
			added++
		}

		sort.SliceStable(p.Sections, func(i, j int) bool {
			return p.Sections[i].Order < p.Sections[j].Order
		})
		for i := range p.Sections {
			p.Sections[i].Order = i + 1
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// CreateReviewRequest escalates a proposal to a human reviewer. The request
// starts assigned, authored by the proposal owner, with one seed comment
// echoing the reason.
func (s *Store) CreateReviewRequest(proposalID string, in ReviewRequestInput) (string, error) {
	var id string
	err := s.mutate(OpCreateReview, proposalID, func(p *Proposal, now time.Time) error {
		id = s.newID("rev")
		author := p.Owner.snapshot()
		p.ReviewRequests = append(p.ReviewRequests, ReviewRequest{
			ID:                 id,
			CreatedAt:          now,
			CreatedBy:          author,
			Assignee:           in.Assignee,
			Reason:             in.Reason,
			RelatedSectionIDs:  cloneSlice(in.RelatedSectionIDs),
			RelatedQuestionIDs: cloneSlice(in.RelatedQuestionIDs),
			Status:             ReviewAssigned,
			Comments: []ReviewComment{{
				ID:        s.newID("c"),
				Author:    author,
				Message:   "Escalated for review: " + in.Reason,
				CreatedAt: now,
			}},
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// AddReviewComment appends a comment by the proposal owner. A message that
// is empty after trimming is ignored without error.
func (s *Store) AddReviewComment(proposalID, requestID, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	return s.mutate(OpAddReviewComment, proposalID, func(p *Proposal, now time.Time) error {
		r := findReviewRequest(p, requestID)
		if r == nil {
			return fmt.Errorf("%w: %s", ErrReviewRequestNotFound, requestID)
		}
		r.Comments = append(r.Comments, ReviewComment{
			ID:        s.newID("c"),
			Author:    p.Owner.snapshot(),
			Message:   message,
			CreatedAt: now,
		})
		return nil
	})
}

// UpdateReviewStatus moves a review request forward through
// assigned, in_progress, resolved. Backward or unknown moves are rejected.
func (s *Store) UpdateReviewStatus(proposalID, requestID string, status ReviewStatus) error {
	return s.mutate(OpUpdateReviewStatus, proposalID, func(p *Proposal, _ time.Time) error {
		r := findReviewRequest(p, requestID)
		if r == nil {
			return fmt.Errorf("%w: %s", ErrReviewRequestNotFound, requestID)
		}
		if status.rank() <= r.Status.rank() {
			return fmt.Errorf("%w: review %s from %s to %s", ErrInvalidTransition, requestID, r.Status, status)
		}
		r.Status = status
		return nil
	})
}

func findReviewRequest(p *Proposal, id string) *ReviewRequest {
	for i := range p.ReviewRequests {
		if p.ReviewRequests[i].ID == id {
			return &p.ReviewRequests[i]
		}
	}
	return nil
}
