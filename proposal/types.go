// Package proposal provides the sales proposal workflow engine: the entity
// model, derived metrics, the in-memory Store that owns every mutation, and
// read-only selectors over the store.
package proposal

import (
	"time"
)

// Status represents the current state of a proposal in the sales workflow.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusInReview        Status = "in_review"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusSent            Status = "sent"
	StatusAccepted        Status = "accepted"
	StatusDeclined        Status = "declined"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a known proposal status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusInReview, StatusPendingApproval, StatusApproved,
		StatusRejected, StatusSent, StatusAccepted, StatusDeclined:
		return true
	default:
		return false
	}
}

// ApprovalState represents the review state of a single section.
type ApprovalState string

const (
	ApprovalDraft         ApprovalState = "draft"
	ApprovalPending       ApprovalState = "pending"
	ApprovalApproved      ApprovalState = "approved"
	ApprovalRejected      ApprovalState = "rejected"
	ApprovalNeedsRevision ApprovalState = "needs_revision"
)

// String returns the string representation of the approval state.
func (a ApprovalState) String() string {
	return string(a)
}

// IsValid returns true if the approval state is known.
func (a ApprovalState) IsValid() bool {
	switch a {
	case ApprovalDraft, ApprovalPending, ApprovalApproved, ApprovalRejected, ApprovalNeedsRevision:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether a section may move from a to target.
// The store only consults this when strict approvals are enabled.
func (a ApprovalState) CanTransitionTo(target ApprovalState) bool {
	switch a {
	case ApprovalDraft:
		return target == ApprovalPending
	case ApprovalPending:
		return target == ApprovalApproved || target == ApprovalRejected || target == ApprovalNeedsRevision
	case ApprovalRejected, ApprovalNeedsRevision:
		// Resubmission after the author reworks the content.
		return target == ApprovalPending
	case ApprovalApproved:
		return false
	default:
		return false
	}
}

// SourceType identifies where a piece of provenance came from.
type SourceType string

const (
	SourceCRM              SourceType = "crm"
	SourceDocument         SourceType = "document"
	SourceEmail            SourceType = "email"
	SourceMeetingNotes     SourceType = "meeting_notes"
	SourcePreviousProposal SourceType = "previous_proposal"
	SourceCustomerWebsite  SourceType = "customer_website"
	SourceInternalWiki     SourceType = "internal_wiki"
	SourceSalesPlaybook    SourceType = "sales_playbook"
)

// IsValid returns true if the source type is known.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceCRM, SourceDocument, SourceEmail, SourceMeetingNotes,
		SourcePreviousProposal, SourceCustomerWebsite, SourceInternalWiki, SourceSalesPlaybook:
		return true
	default:
		return false
	}
}

// Priority is shared by open questions and nudges.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// IsValid returns true if the priority is known.
func (p Priority) IsValid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// NudgeType classifies a proactive nudge.
type NudgeType string

const (
	NudgeSuggestion   NudgeType = "suggestion"
	NudgeReminder     NudgeType = "reminder"
	NudgeWarning      NudgeType = "warning"
	NudgeInfo         NudgeType = "info"
	NudgeBestPractice NudgeType = "best_practice"
	NudgeCompliance   NudgeType = "compliance"
)

// NudgeAction is what happens when the user acts on a nudge.
type NudgeAction string

const (
	NudgeActionNavigate NudgeAction = "navigate"
	NudgeActionEdit     NudgeAction = "edit"
	NudgeActionReview   NudgeAction = "review"
	NudgeActionDismiss  NudgeAction = "dismiss"
)

// ReviewStatus tracks an escalation through human review.
type ReviewStatus string

const (
	ReviewAssigned   ReviewStatus = "assigned"
	ReviewInProgress ReviewStatus = "in_progress"
	ReviewResolved   ReviewStatus = "resolved"
)

// rank orders review statuses so only forward moves are accepted.
func (r ReviewStatus) rank() int {
	switch r {
	case ReviewAssigned:
		return 0
	case ReviewInProgress:
		return 1
	case ReviewResolved:
		return 2
	default:
		return -1
	}
}

// Person identifies an owner, reviewer, or comment author.
type Person struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// snapshot drops presentation-only fields, as recorded on review requests.
func (p Person) snapshot() Person {
	return Person{ID: p.ID, Name: p.Name, Email: p.Email}
}

// Stakeholder is a key contact on the customer side.
type Stakeholder struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Email string `json:"email"`
}

// Source is a provenance record backing section content. Sources are shared
// by id across sections and are not modified once attached.
type Source struct {
	ID    string     `json:"id"`
	Type  SourceType `json:"type"`
	Title string     `json:"title"`

	// Reference is a URL, file path, or CRM record id.
	Reference string `json:"reference"`

	// Excerpt is a short summary of the relevant content.
	Excerpt string `json:"excerpt,omitempty"`

	LastUpdated time.Time `json:"last_updated"`

	// RelevanceScore is in [0,1].
	RelevanceScore float64 `json:"relevance_score"`

	Author string `json:"author,omitempty"`
}

// Section is an independently approvable block of proposal content.
type Section struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`

	// Confidence is the authored or estimated confidence in [0,1].
	Confidence float64 `json:"confidence"`

	Sources       []Source      `json:"sources"`
	ApprovalState ApprovalState `json:"approval_state"`

	// Order is the 1-based display and assembly position.
	Order int `json:"order"`

	LastModified  time.Time `json:"last_modified"`
	ModifiedBy    string    `json:"modified_by"`
	ReviewerNotes string    `json:"reviewer_notes,omitempty"`

	// WordCount must match the whitespace-token count of Content. The store
	// never derives it; callers pass it alongside content changes.
	WordCount int `json:"word_count"`
}

// OpenQuestion is an unresolved issue holding back confidence or completion.
type OpenQuestion struct {
	ID        string   `json:"id"`
	Question  string   `json:"question"`
	Rationale string   `json:"rationale"`
	Priority  Priority `json:"priority"`

	// RelatedSectionIDs are weak references into the proposal's sections.
	RelatedSectionIDs []string `json:"related_section_ids"`

	SuggestedSources []Source  `json:"suggested_sources,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	Dismissed        bool      `json:"dismissed"`
	Category         string    `json:"category,omitempty"`
}

// Nudge is a proactive, dismissible suggestion or warning.
type Nudge struct {
	ID               string      `json:"id"`
	Type             NudgeType   `json:"type"`
	Message          string      `json:"message"`
	ActionLabel      string      `json:"action_label,omitempty"`
	ActionType       NudgeAction `json:"action_type,omitempty"`
	ActionTarget     string      `json:"action_target,omitempty"`
	Priority         Priority    `json:"priority"`
	RelatedSectionID string      `json:"related_section_id,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	Dismissed        bool        `json:"dismissed"`

	// ExpiresAt marks time-sensitive nudges. Expired nudges stay until
	// ClearExpiredNudges is called.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the nudge expired strictly before now.
func (n Nudge) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && n.ExpiresAt.Before(now)
}

// ReviewComment is one entry in a review request's thread.
type ReviewComment struct {
	ID        string    `json:"id"`
	Author    Person    `json:"author"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewRequest routes a proposal to a human reviewer. It is only created
// through escalation and always starts with one seed comment.
type ReviewRequest struct {
	ID                 string          `json:"id"`
	CreatedAt          time.Time       `json:"created_at"`
	CreatedBy          Person          `json:"created_by"`
	Assignee           Person          `json:"assignee"`
	Reason             string          `json:"reason"`
	RelatedSectionIDs  []string        `json:"related_section_ids,omitempty"`
	RelatedQuestionIDs []string        `json:"related_question_ids,omitempty"`
	Status             ReviewStatus    `json:"status"`
	Comments           []ReviewComment `json:"comments"`
}

// Proposal is the root aggregate. It exclusively owns its sections,
// questions, nudges, and review requests.
type Proposal struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ClientName string `json:"client_name"`

	// ClientID is the CRM opportunity or account id.
	ClientID string `json:"client_id"`

	// OpportunityValue is the deal value in USD.
	OpportunityValue float64 `json:"opportunity_value"`

	Status         Status          `json:"status"`
	Sections       []Section       `json:"sections"`
	OpenQuestions  []OpenQuestion  `json:"open_questions"`
	Nudges         []Nudge         `json:"nudges"`
	ReviewRequests []ReviewRequest `json:"review_requests,omitempty"`

	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
	DueDate      time.Time `json:"due_date"`

	Owner        Person        `json:"owner"`
	Industry     string        `json:"industry,omitempty"`
	Stakeholders []Stakeholder `json:"stakeholders,omitempty"`

	// Derived from Sections on every mutation.
	OverallConfidence float64 `json:"overall_confidence"`
	TotalWordCount    int     `json:"total_word_count"`
}

// SectionByID returns the section with the given id.
func (p *Proposal) SectionByID(id string) (*Section, bool) {
	for i := range p.Sections {
		if p.Sections[i].ID == id {
			return &p.Sections[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the proposal.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	c := *p
	c.Sections = cloneSections(p.Sections)
	c.OpenQuestions = cloneQuestions(p.OpenQuestions)
	c.Nudges = cloneNudges(p.Nudges)
	if p.ReviewRequests != nil {
		c.ReviewRequests = make([]ReviewRequest, len(p.ReviewRequests))
		for i, r := range p.ReviewRequests {
			r.RelatedSectionIDs = cloneSlice(r.RelatedSectionIDs)
			r.RelatedQuestionIDs = cloneSlice(r.RelatedQuestionIDs)
			r.Comments = cloneSlice(r.Comments)
			c.ReviewRequests[i] = r
		}
	}
	if p.Stakeholders != nil {
		c.Stakeholders = cloneSlice(p.Stakeholders)
	}
	return &c
}

func cloneSections(in []Section) []Section {
	if in == nil {
		return nil
	}
	out := make([]Section, len(in))
	for i, s := range in {
		s.Sources = cloneSlice(s.Sources)
		out[i] = s
	}
	return out
}

func cloneQuestions(in []OpenQuestion) []OpenQuestion {
	if in == nil {
		return nil
	}
	out := make([]OpenQuestion, len(in))
	for i, q := range in {
		q.RelatedSectionIDs = cloneSlice(q.RelatedSectionIDs)
		q.SuggestedSources = cloneSlice(q.SuggestedSources)
		out[i] = q
	}
	return out
}

func cloneNudges(in []Nudge) []Nudge {
	if in == nil {
		return nil
	}
	out := make([]Nudge, len(in))
	for i, n := range in {
		if n.ExpiresAt != nil {
			t := *n.ExpiresAt
			n.ExpiresAt = &t
		}
		out[i] = n
	}
	return out
}

// cloneSlice copies in, keeping an empty non-nil slice non-nil so it
// still encodes as [] rather than null.
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
