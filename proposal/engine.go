package proposal

import "time"

// Engine is the full proposal operation set. *Store is the in-memory
// implementation; persistence layers observe it rather than replace it, but
// callers should depend on Engine so alternate backings stay swappable.
type Engine interface {
	// Reads. Returned proposals are deep copies.
	GetProposal(id string) (*Proposal, bool)
	GetActiveProposal() (*Proposal, bool)
	GetAllProposals() []*Proposal
	ActiveProposalID() string

	// Proposals
	CreateProposal(p Proposal) string
	UpdateProposal(id string, u ProposalUpdate) error
	DeleteProposal(id string) error
	DuplicateProposal(id string) (string, error)
	SetActiveProposal(id string)
	ClearActiveProposal()

	// Sections
	AddSection(proposalID string, s Section) (string, error)
	UpdateSection(proposalID, sectionID string, u SectionUpdate) error
	DeleteSection(proposalID, sectionID string) error
	ReorderSections(proposalID string, sectionIDs []string) error
	ApproveSection(proposalID, sectionID, notes string) error
	RejectSection(proposalID, sectionID, notes string) error
	RequestRevisionSection(proposalID, sectionID, notes string) error

	// Open questions
	AddQuestion(proposalID string, q OpenQuestion) (string, error)
	UpdateQuestion(proposalID, questionID string, u QuestionUpdate) error
	DismissQuestion(proposalID, questionID string) error
	ResolveQuestion(proposalID, questionID string) error
	DeleteQuestion(proposalID, questionID string) error

	// Nudges
	AddNudge(proposalID string, n Nudge) (string, error)
	UpdateNudge(proposalID, nudgeID string, u NudgeUpdate) error
	DismissNudge(proposalID, nudgeID string) error
	DeleteNudge(proposalID, nudgeID string) error
	ClearExpiredNudges(proposalID string) (int, error)

	// Templates and escalation
	ApplyStandardTemplate(proposalID string) (int, error)
	CreateReviewRequest(proposalID string, in ReviewRequestInput) (string, error)
	AddReviewComment(proposalID, requestID, message string) error
	UpdateReviewStatus(proposalID, requestID string, status ReviewStatus) error

	// Bulk
	ClearAllData()
	ImportProposal(p Proposal)
	Snapshot() *Snapshot
	Restore(snap *Snapshot)

	Subscribe(fn func(Event)) (unsubscribe func())
}

var _ Engine = (*Store)(nil)

// ProposalUpdate is a partial proposal. Nil fields are left unchanged.
// Setting Sections recomputes the derived metrics from the new sections.
type ProposalUpdate struct {
	Title            *string
	ClientName       *string
	ClientID         *string
	OpportunityValue *float64
	Status           *Status
	Sections         *[]Section
	OpenQuestions    *[]OpenQuestion
	Nudges           *[]Nudge
	ReviewRequests   *[]ReviewRequest
	DueDate          *time.Time
	Owner            *Person
	Industry         *string
	Stakeholders     *[]Stakeholder
}

// SectionUpdate is a partial section. Callers changing Content are expected
// to pass a matching WordCount.
type SectionUpdate struct {
	Title         *string
	Content       *string
	Confidence    *float64
	Sources       *[]Source
	ApprovalState *ApprovalState
	Order         *int
	ModifiedBy    *string
	ReviewerNotes *string
	WordCount     *int
}

// QuestionUpdate is a partial open question.
type QuestionUpdate struct {
	Question          *string
	Rationale         *string
	Priority          *Priority
	RelatedSectionIDs *[]string
	SuggestedSources  *[]Source
	Dismissed         *bool
	Category          *string
}

// NudgeUpdate is a partial nudge.
type NudgeUpdate struct {
	Type             *NudgeType
	Message          *string
	ActionLabel      *string
	ActionType       *NudgeAction
	ActionTarget     *string
	Priority         *Priority
	RelatedSectionID *string
	Dismissed        *bool
	ExpiresAt        *time.Time

	// ClearExpiry removes any expiry; it wins over ExpiresAt.
	ClearExpiry bool
}

// ReviewRequestInput carries the caller-supplied parts of an escalation.
type ReviewRequestInput struct {
	Reason             string
	Assignee           Person
	RelatedSectionIDs  []string
	RelatedQuestionIDs []string
}

// Ptr returns a pointer to v. It keeps partial-update literals short.
func Ptr[T any](v T) *T {
	return &v
}
