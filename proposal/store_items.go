package proposal

import (
	"fmt"
	"time"
)

// AddQuestion appends an open question and returns its id.
func (s *Store) AddQuestion(proposalID string, q OpenQuestion) (string, error) {
	var id string
	err := s.mutate(OpAddQuestion, proposalID, func(p *Proposal, now time.Time) error {
		id = s.newID("q")
		q.ID = id
		q.CreatedAt = now
		q.Dismissed = false
		q.RelatedSectionIDs = cloneSlice(q.RelatedSectionIDs)
		q.SuggestedSources = cloneSlice(q.SuggestedSources)
		p.OpenQuestions = append(p.OpenQuestions, q)
		normalize(p)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateQuestion merges u into the question.
func (s *Store) UpdateQuestion(proposalID, questionID string, u QuestionUpdate) error {
	return s.mutate(OpUpdateQuestion, proposalID, func(p *Proposal, _ time.Time) error {
		q := findQuestion(p, questionID)
		if q == nil {
			return fmt.Errorf("%w: %s", ErrQuestionNotFound, questionID)
		}
		if u.Question != nil {
			q.Question = *u.Question
		}
		if u.Rationale != nil {
			q.Rationale = *u.Rationale
		}
		if u.Priority != nil {
			q.Priority = *u.Priority
		}
		if u.RelatedSectionIDs != nil {
			q.RelatedSectionIDs = cloneSlice(*u.RelatedSectionIDs)
		}
		if u.SuggestedSources != nil {
			q.SuggestedSources = cloneSlice(*u.SuggestedSources)
		}
		if u.Dismissed != nil {
			q.Dismissed = *u.Dismissed
		}
		if u.Category != nil {
			q.Category = *u.Category
		}
		normalize(p)
		return nil
	})
}

// DismissQuestion soft-dismisses a question. It stays in OpenQuestions.
func (s *Store) DismissQuestion(proposalID, questionID string) error {
	dismissed := true
	return s.UpdateQuestion(proposalID, questionID, QuestionUpdate{Dismissed: &dismissed})
}

// ResolveQuestion removes an answered question.
func (s *Store) ResolveQuestion(proposalID, questionID string) error {
	return s.DeleteQuestion(proposalID, questionID)
}

// DeleteQuestion removes a question outright.
func (s *Store) DeleteQuestion(proposalID, questionID string) error {
	return s.mutate(OpDeleteQuestion, proposalID, func(p *Proposal, _ time.Time) error {
		for i := range p.OpenQuestions {
			if p.OpenQuestions[i].ID == questionID {
				p.OpenQuestions = append(p.OpenQuestions[:i], p.OpenQuestions[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrQuestionNotFound, questionID)
	})
}

func findQuestion(p *Proposal, id string) *OpenQuestion {
	for i := range p.OpenQuestions {
		if p.OpenQuestions[i].ID == id {
			return &p.OpenQuestions[i]
		}
	}
	return nil
}

// AddNudge appends a nudge and returns its id.
func (s *Store) AddNudge(proposalID string, n Nudge) (string, error) {
	var id string
	err := s.mutate(OpAddNudge, proposalID, func(p *Proposal, now time.Time) error {
		id = s.newID("n")
		n.ID = id
		n.CreatedAt = now
		n.Dismissed = false
		if n.ExpiresAt != nil {
			t := *n.ExpiresAt
			n.ExpiresAt = &t
		}
		p.Nudges = append(p.Nudges, n)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateNudge merges u into the nudge.
func (s *Store) UpdateNudge(proposalID, nudgeID string, u NudgeUpdate) error {
	return s.mutate(OpUpdateNudge, proposalID, func(p *Proposal, _ time.Time) error {
		n := findNudge(p, nudgeID)
		if n == nil {
			return fmt.Errorf("%w: %s", ErrNudgeNotFound, nudgeID)
		}
		if u.Type != nil {
			n.Type = *u.Type
		}
		if u.Message != nil {
			n.Message = *u.Message
		}
		if u.ActionLabel != nil {
			n.ActionLabel = *u.ActionLabel
		}
		if u.ActionType != nil {
			n.ActionType = *u.ActionType
		}
		if u.ActionTarget != nil {
			n.ActionTarget = *u.ActionTarget
		}
		if u.Priority != nil {
			n.Priority = *u.Priority
		}
		if u.RelatedSectionID != nil {
			n.RelatedSectionID = *u.RelatedSectionID
		}
		if u.Dismissed != nil {
			n.Dismissed = *u.Dismissed
		}
		if u.ExpiresAt != nil {
			t := *u.ExpiresAt
			n.ExpiresAt = &t
		}
		if u.ClearExpiry {
			n.ExpiresAt = nil
		}
		return nil
	})
}

// DismissNudge soft-dismisses a nudge.
func (s *Store) DismissNudge(proposalID, nudgeID string) error {
	dismissed := true
	return s.UpdateNudge(proposalID, nudgeID, NudgeUpdate{Dismissed: &dismissed})
}

// DeleteNudge removes a nudge outright.
func (s *Store) DeleteNudge(proposalID, nudgeID string) error {
	return s.mutate(OpDeleteNudge, proposalID, func(p *Proposal, _ time.Time) error {
		for i := range p.Nudges {
			if p.Nudges[i].ID == nudgeID {
				p.Nudges = append(p.Nudges[:i], p.Nudges[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrNudgeNotFound, nudgeID)
	})
}

// ClearExpiredNudges removes every nudge whose expiry is strictly before the
// current time and returns how many were removed. Nudges without an expiry
// are never removed. Nothing calls this on a timer.
func (s *Store) ClearExpiredNudges(proposalID string) (int, error) {
	removed := 0
	err := s.mutate(OpClearExpiredNudges, proposalID, func(p *Proposal, now time.Time) error {
		kept := p.Nudges[:0]
		for _, n := range p.Nudges {
			if n.Expired(now) {
				removed++
				continue
			}
			kept = append(kept, n)
		}
		p.Nudges = kept
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func findNudge(p *Proposal, id string) *Nudge {
	for i := range p.Nudges {
		if p.Nudges[i].ID == id {
			return &p.Nudges[i]
		}
	}
	return nil
}
