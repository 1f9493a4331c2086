package proposal

import (
	"fmt"
	"slices"
	"time"
)

// AddSection appends a section and returns its id. The store assigns the id,
// stamps LastModified and ModifiedBy from the proposal owner, and defaults
// the approval state to draft. Order is a 1-based position: a non-positive
// or out-of-range Order places the section last. Sections are renumbered
// 1..N afterwards so orders stay unique.
func (s *Store) AddSection(proposalID string, sec Section) (string, error) {
	var id string
	err := s.mutate(OpAddSection, proposalID, func(p *Proposal, now time.Time) error {
		id = s.newID("sec")
		sec.ID = id
		sec.LastModified = now
		sec.ModifiedBy = p.Owner.Name
		if sec.ApprovalState == "" {
			sec.ApprovalState = ApprovalDraft
		}
		sec.Sources = cloneSlice(sec.Sources)
		if at := sec.Order - 1; at >= 0 && at < len(p.Sections) {
			p.Sections = slices.Insert(p.Sections, at, sec)
		} else {
			p.Sections = append(p.Sections, sec)
		}
		for i := range p.Sections {
			p.Sections[i].Order = i + 1
		}
		normalize(p)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateSection merges u into the section and re-stamps LastModified.
// ModifiedBy is kept unless u supplies one.
func (s *Store) UpdateSection(proposalID, sectionID string, u SectionUpdate) error {
	return s.mutate(OpUpdateSection, proposalID, func(p *Proposal, now time.Time) error {
		sec, ok := p.SectionByID(sectionID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrSectionNotFound, sectionID)
		}
		if u.ApprovalState != nil && s.strict && *u.ApprovalState != sec.ApprovalState &&
			!sec.ApprovalState.CanTransitionTo(*u.ApprovalState) {
			return fmt.Errorf("%w: section %s from %s to %s",
				ErrInvalidTransition, sectionID, sec.ApprovalState, *u.ApprovalState)
		}

		if u.Title != nil {
			sec.Title = *u.Title
		}
		if u.Content != nil {
			sec.Content = *u.Content
		}
		if u.Confidence != nil {
			sec.Confidence = *u.Confidence
		}
		if u.Sources != nil {
			sec.Sources = cloneSlice(*u.Sources)
		}
		if u.ApprovalState != nil {
			sec.ApprovalState = *u.ApprovalState
		}
		if u.Order != nil {
			sec.Order = *u.Order
		}
		if u.ModifiedBy != nil {
			sec.ModifiedBy = *u.ModifiedBy
		}
		if u.ReviewerNotes != nil {
			sec.ReviewerNotes = *u.ReviewerNotes
		}
		if u.WordCount != nil {
			sec.WordCount = *u.WordCount
		}
		sec.LastModified = now
		normalize(p)
		return nil
	})
}

// DeleteSection removes a section.
func (s *Store) DeleteSection(proposalID, sectionID string) error {
	return s.mutate(OpDeleteSection, proposalID, func(p *Proposal, _ time.Time) error {
		for i := range p.Sections {
			if p.Sections[i].ID == sectionID {
				p.Sections = append(p.Sections[:i], p.Sections[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrSectionNotFound, sectionID)
	})
}

// ReorderSections rebuilds the section list in the order of sectionIDs and
// renumbers Order to 1..N. Unknown and repeated ids are skipped. Sections
// missing from sectionIDs are dropped: a partial list shrinks the proposal to
// exactly that subset.
func (s *Store) ReorderSections(proposalID string, sectionIDs []string) error {
	return s.mutate(OpReorderSections, proposalID, func(p *Proposal, _ time.Time) error {
		byID := make(map[string]Section, len(p.Sections))
		for _, sec := range p.Sections {
			byID[sec.ID] = sec
		}
		ordered := make([]Section, 0, len(sectionIDs))
		for _, id := range sectionIDs {
			sec, ok := byID[id]
			if !ok {
				continue
			}
			delete(byID, id)
			sec.Order = len(ordered) + 1
			ordered = append(ordered, sec)
		}
		p.Sections = ordered
		return nil
	})
}

// ApproveSection marks a section approved with optional reviewer notes.
func (s *Store) ApproveSection(proposalID, sectionID, notes string) error {
	return s.setApproval(proposalID, sectionID, ApprovalApproved, notes)
}

// RejectSection marks a section rejected.
func (s *Store) RejectSection(proposalID, sectionID, notes string) error {
	return s.setApproval(proposalID, sectionID, ApprovalRejected, notes)
}

// RequestRevisionSection sends a section back for revision.
func (s *Store) RequestRevisionSection(proposalID, sectionID, notes string) error {
	return s.setApproval(proposalID, sectionID, ApprovalNeedsRevision, notes)
}

func (s *Store) setApproval(proposalID, sectionID string, state ApprovalState, notes string) error {
	return s.UpdateSection(proposalID, sectionID, SectionUpdate{
		ApprovalState: &state,
		ReviewerNotes: &notes,
	})
}
