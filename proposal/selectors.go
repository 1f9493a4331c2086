package proposal

import "sort"

// Selectors are read-only queries over an Engine. Nothing is cached; every
// call reads the engine's state at call time.
type Selectors struct {
	engine Engine
}

// NewSelectors creates selectors over e.
func NewSelectors(e Engine) *Selectors {
	return &Selectors{engine: e}
}

// HighPriority bundles the active high-priority items of a proposal.
type HighPriority struct {
	Questions []OpenQuestion
	Nudges    []Nudge
}

// ProposalsByStatus returns every proposal in the given status.
func (s *Selectors) ProposalsByStatus(status Status) []*Proposal {
	var out []*Proposal
	for _, p := range s.engine.GetAllProposals() {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

// SectionsByApprovalState returns the sections of a proposal in the given
// approval state. Unknown proposals yield nothing.
func (s *Selectors) SectionsByApprovalState(proposalID string, state ApprovalState) []Section {
	p, ok := s.engine.GetProposal(proposalID)
	if !ok {
		return nil
	}
	var out []Section
	for _, sec := range p.Sections {
		if sec.ApprovalState == state {
			out = append(out, sec)
		}
	}
	return out
}

// ActiveQuestions returns non-dismissed questions, optionally narrowed to
// one priority.
func (s *Selectors) ActiveQuestions(proposalID string, priority *Priority) []OpenQuestion {
	p, ok := s.engine.GetProposal(proposalID)
	if !ok {
		return nil
	}
	return activeQuestions(p, priority)
}

// ActiveNudges returns non-dismissed nudges, optionally narrowed to one
// priority.
func (s *Selectors) ActiveNudges(proposalID string, priority *Priority) []Nudge {
	p, ok := s.engine.GetProposal(proposalID)
	if !ok {
		return nil
	}
	return activeNudges(p, priority)
}

// CompletionPercentage returns the approved share of a proposal's sections.
func (s *Selectors) CompletionPercentage(proposalID string) int {
	p, ok := s.engine.GetProposal(proposalID)
	if !ok {
		return 0
	}
	return CompletionPercentage(p)
}

// HighPriorityItems returns active high-priority questions and nudges from
// a single read of the proposal.
func (s *Selectors) HighPriorityItems(proposalID string) HighPriority {
	p, ok := s.engine.GetProposal(proposalID)
	if !ok {
		return HighPriority{}
	}
	high := PriorityHigh
	return HighPriority{
		Questions: activeQuestions(p, &high),
		Nudges:    activeNudges(p, &high),
	}
}

// UniqueSources returns every source referenced by the proposal's sections,
// deduplicated by id and sorted by relevance, highest first.
func (s *Selectors) UniqueSources(proposalID string) []Source {
	p, ok := s.engine.GetProposal(proposalID)
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []Source
	for _, sec := range p.Sections {
		for _, src := range sec.Sources {
			if seen[src.ID] {
				continue
			}
			seen[src.ID] = true
			out = append(out, src)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})
	return out
}

// LowConfidenceSectionIDs returns ids of sections whose confidence is below
// threshold.
func (s *Selectors) LowConfidenceSectionIDs(proposalID string, threshold float64) []string {
	p, ok := s.engine.GetProposal(proposalID)
	if !ok {
		return nil
	}
	var ids []string
	for _, sec := range p.Sections {
		if sec.Confidence < threshold {
			ids = append(ids, sec.ID)
		}
	}
	return ids
}

// Prioritized is anything carrying a priority.
type Prioritized interface {
	OpenQuestion | Nudge
}

// CountByPriority tallies items per priority. Every priority is present in
// the result, zero when absent.
func CountByPriority[T Prioritized](items []T) map[Priority]int {
	counts := map[Priority]int{PriorityHigh: 0, PriorityMedium: 0, PriorityLow: 0}
	for _, item := range items {
		switch v := any(item).(type) {
		case OpenQuestion:
			counts[v.Priority]++
		case Nudge:
			counts[v.Priority]++
		}
	}
	return counts
}

func activeQuestions(p *Proposal, priority *Priority) []OpenQuestion {
	var out []OpenQuestion
	for _, q := range p.OpenQuestions {
		if q.Dismissed {
			continue
		}
		if priority != nil && q.Priority != *priority {
			continue
		}
		out = append(out, q)
	}
	return out
}

func activeNudges(p *Proposal, priority *Priority) []Nudge {
	var out []Nudge
	for _, n := range p.Nudges {
		if n.Dismissed {
			continue
		}
		if priority != nil && n.Priority != *priority {
			continue
		}
		out = append(out, n)
	}
	return out
}
