package proposal

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Op names a store mutation in change events.
type Op string

const (
	OpCreateProposal     Op = "create_proposal"
	OpUpdateProposal     Op = "update_proposal"
	OpDeleteProposal     Op = "delete_proposal"
	OpDuplicateProposal  Op = "duplicate_proposal"
	OpSetActive          Op = "set_active"
	OpAddSection         Op = "add_section"
	OpUpdateSection      Op = "update_section"
	OpDeleteSection      Op = "delete_section"
	OpReorderSections    Op = "reorder_sections"
	OpAddQuestion        Op = "add_question"
	OpUpdateQuestion     Op = "update_question"
	OpDeleteQuestion     Op = "delete_question"
	OpAddNudge           Op = "add_nudge"
	OpUpdateNudge        Op = "update_nudge"
	OpDeleteNudge        Op = "delete_nudge"
	OpClearExpiredNudges Op = "clear_expired_nudges"
	OpApplyTemplate      Op = "apply_template"
	OpCreateReview       Op = "create_review_request"
	OpAddReviewComment   Op = "add_review_comment"
	OpUpdateReviewStatus Op = "update_review_status"
	OpClearAll           Op = "clear_all"
	OpImport             Op = "import_proposal"
	OpRestore            Op = "restore"
)

// Event is published after every successful mutation.
type Event struct {
	Op         Op
	ProposalID string
	At         time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock for deterministic testing.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// WithIDGenerator overrides id generation. The generator receives the
// entity prefix ("prop", "sec", "q", "n", "rev", "c").
func WithIDGenerator(gen func(prefix string) string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStrictApprovals makes section approval changes obey
// ApprovalState.CanTransitionTo. The default store accepts any transition.
func WithStrictApprovals(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

// Store is the in-memory proposal engine. Every operation runs to completion
// under a single lock, works on a copy of the target proposal, and commits
// the copy only on success, so a failed operation never leaves partial state.
type Store struct {
	mu        sync.RWMutex
	proposals map[string]*Proposal
	activeID  string

	clock  func() time.Time
	newID  func(prefix string) string
	logger *slog.Logger
	strict bool

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		proposals: make(map[string]*Proposal),
		clock:     time.Now,
		newID:     defaultID,
		logger:    slog.Default(),
		subs:      make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String())
}

// Subscribe registers fn to receive change events. Handlers run on the
// mutating goroutine after the store lock is released.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) publish(op Op, proposalID string, at time.Time) {
	s.subMu.Lock()
	handlers := make([]func(Event), 0, len(s.subs))
	keys := make([]int, 0, len(s.subs))
	for k := range s.subs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		handlers = append(handlers, s.subs[k])
	}
	s.subMu.Unlock()

	ev := Event{Op: op, ProposalID: proposalID, At: at}
	for _, h := range handlers {
		h(ev)
	}
}

// mutate applies fn to a working copy of the proposal and commits it. The
// derived metrics are recomputed before the commit and LastModified is
// stamped.
func (s *Store) mutate(op Op, id string, fn func(p *Proposal, now time.Time) error) error {
	s.mu.Lock()
	current, ok := s.proposals[id]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("Proposal not found", "op", op, "proposal_id", id)
		return fmt.Errorf("%w: %s", ErrProposalNotFound, id)
	}

	now := s.clock()
	work := current.Clone()
	if err := fn(work, now); err != nil {
		s.mu.Unlock()
		s.logger.Debug("Proposal mutation rejected", "op", op, "proposal_id", id, "error", err)
		return err
	}
	work.LastModified = now
	recompute(work)
	s.proposals[id] = work
	s.mu.Unlock()

	s.logger.Debug("Proposal mutated", "op", op, "proposal_id", id)
	s.publish(op, id, now)
	return nil
}

// GetProposal returns a copy of the proposal with the given id.
func (s *Store) GetProposal(id string) (*Proposal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proposals[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// GetActiveProposal returns a copy of the active proposal, if any.
func (s *Store) GetActiveProposal() (*Proposal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeID == "" {
		return nil, false
	}
	p, ok := s.proposals[s.activeID]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// ActiveProposalID returns the active pointer, which may name a proposal
// that does not exist.
func (s *Store) ActiveProposalID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// GetAllProposals returns copies of every proposal ordered by creation time.
func (s *Store) GetAllProposals() []*Proposal {
	s.mu.RLock()
	out := make([]*Proposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		out = append(out, p.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// CreateProposal inserts a new proposal and makes it active. Ids are
// generated for the proposal and any owned entity that has none; a supplied
// CreatedAt is kept.
func (s *Store) CreateProposal(p Proposal) string {
	now := s.clock()
	work := p.Clone()
	if work.ID == "" {
		work.ID = s.newID("prop")
	}
	if work.CreatedAt.IsZero() {
		work.CreatedAt = now
	}
	work.LastModified = now
	s.assignMissingIDs(work)
	normalize(work)
	recompute(work)

	s.mu.Lock()
	s.proposals[work.ID] = work
	s.activeID = work.ID
	s.mu.Unlock()

	s.logger.Debug("Proposal created", "proposal_id", work.ID, "client", work.ClientName)
	s.publish(OpCreateProposal, work.ID, now)
	return work.ID
}

// UpdateProposal merges u into the proposal.
func (s *Store) UpdateProposal(id string, u ProposalUpdate) error {
	return s.mutate(OpUpdateProposal, id, func(p *Proposal, _ time.Time) error {
		if u.Title != nil {
			p.Title = *u.Title
		}
		if u.ClientName != nil {
			p.ClientName = *u.ClientName
		}
		if u.ClientID != nil {
			p.ClientID = *u.ClientID
		}
		if u.OpportunityValue != nil {
			p.OpportunityValue = *u.OpportunityValue
		}
		if u.Status != nil {
			p.Status = *u.Status
		}
		if u.Sections != nil {
			p.Sections = cloneSections(*u.Sections)
		}
		if u.OpenQuestions != nil {
			p.OpenQuestions = cloneQuestions(*u.OpenQuestions)
		}
		if u.Nudges != nil {
			p.Nudges = cloneNudges(*u.Nudges)
		}
		if u.ReviewRequests != nil {
			tmp := &Proposal{ReviewRequests: *u.ReviewRequests}
			p.ReviewRequests = tmp.Clone().ReviewRequests
		}
		if u.DueDate != nil {
			p.DueDate = *u.DueDate
		}
		if u.Owner != nil {
			p.Owner = *u.Owner
		}
		if u.Industry != nil {
			p.Industry = *u.Industry
		}
		if u.Stakeholders != nil {
			p.Stakeholders = cloneSlice(*u.Stakeholders)
		}
		normalize(p)
		return nil
	})
}

// DeleteProposal removes a proposal and everything it owns. The active
// pointer is cleared when it named the deleted proposal.
func (s *Store) DeleteProposal(id string) error {
	s.mu.Lock()
	if _, ok := s.proposals[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrProposalNotFound, id)
	}
	delete(s.proposals, id)
	if s.activeID == id {
		s.activeID = ""
	}
	s.mu.Unlock()

	s.logger.Debug("Proposal deleted", "proposal_id", id)
	s.publish(OpDeleteProposal, id, s.clock())
	return nil
}

// DuplicateProposal copies a proposal into a fresh draft. Sections,
// questions, and nudges get new ids; approval states reset to draft,
// reviewer notes and dismissed flags are cleared, and question and nudge
// section references follow the renamed sections. Review requests stay
// with the original. The copy does not become active.
func (s *Store) DuplicateProposal(id string) (string, error) {
	s.mu.Lock()
	src, ok := s.proposals[id]
	if !ok {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrProposalNotFound, id)
	}

	now := s.clock()
	dup := src.Clone()
	dup.ID = s.newID("prop")
	dup.Title = src.Title + " (Copy)"
	dup.Status = StatusDraft
	dup.CreatedAt = now
	dup.LastModified = now
	dup.ReviewRequests = nil

	renamed := make(map[string]string, len(dup.Sections))
	for i := range dup.Sections {
		sec := &dup.Sections[i]
		newID := s.newID("sec")
		renamed[sec.ID] = newID
		sec.ID = newID
		sec.ApprovalState = ApprovalDraft
		sec.ReviewerNotes = ""
	}
	for i := range dup.OpenQuestions {
		q := &dup.OpenQuestions[i]
		q.ID = s.newID("q")
		q.Dismissed = false
		for j, ref := range q.RelatedSectionIDs {
			if to, ok := renamed[ref]; ok {
				q.RelatedSectionIDs[j] = to
			}
		}
	}
	for i := range dup.Nudges {
		n := &dup.Nudges[i]
		n.ID = s.newID("n")
		n.Dismissed = false
		if to, ok := renamed[n.RelatedSectionID]; ok {
			n.RelatedSectionID = to
		}
	}
	normalize(dup)
	recompute(dup)
	s.proposals[dup.ID] = dup
	s.mu.Unlock()

	s.logger.Debug("Proposal duplicated", "source_id", id, "proposal_id", dup.ID)
	s.publish(OpDuplicateProposal, dup.ID, now)
	return dup.ID, nil
}

// SetActiveProposal sets the active pointer without checking that the
// proposal exists.
func (s *Store) SetActiveProposal(id string) {
	s.mu.Lock()
	s.activeID = id
	s.mu.Unlock()
	s.publish(OpSetActive, id, s.clock())
}

// ClearActiveProposal unsets the active pointer.
func (s *Store) ClearActiveProposal() {
	s.SetActiveProposal("")
}

// ClearAllData empties the store and clears the active pointer.
func (s *Store) ClearAllData() {
	s.mu.Lock()
	s.proposals = make(map[string]*Proposal)
	s.activeID = ""
	s.mu.Unlock()
	s.publish(OpClearAll, "", s.clock())
}

// ImportProposal stores p under its own id as given, replacing any proposal
// with that id. Nothing is stamped or recomputed.
func (s *Store) ImportProposal(p Proposal) {
	work := p.Clone()
	s.mu.Lock()
	s.proposals[work.ID] = work
	s.mu.Unlock()
	s.publish(OpImport, work.ID, s.clock())
}

// assignMissingIDs gives an id to every owned entity that arrived without one.
func (s *Store) assignMissingIDs(p *Proposal) {
	for i := range p.Sections {
		if p.Sections[i].ID == "" {
			p.Sections[i].ID = s.newID("sec")
		}
	}
	for i := range p.OpenQuestions {
		if p.OpenQuestions[i].ID == "" {
			p.OpenQuestions[i].ID = s.newID("q")
		}
	}
	for i := range p.Nudges {
		if p.Nudges[i].ID == "" {
			p.Nudges[i].ID = s.newID("n")
		}
	}
}

// normalize replaces nil owned collections with empty ones so snapshots
// encode them as arrays.
func normalize(p *Proposal) {
	if p.Sections == nil {
		p.Sections = []Section{}
	}
	if p.OpenQuestions == nil {
		p.OpenQuestions = []OpenQuestion{}
	}
	if p.Nudges == nil {
		p.Nudges = []Nudge{}
	}
	for i := range p.Sections {
		if p.Sections[i].Sources == nil {
			p.Sections[i].Sources = []Source{}
		}
	}
	for i := range p.OpenQuestions {
		if p.OpenQuestions[i].RelatedSectionIDs == nil {
			p.OpenQuestions[i].RelatedSectionIDs = []string{}
		}
	}
}
