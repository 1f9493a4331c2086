package proposal

import "errors"

// Sentinel errors for store operations. A not-found error always means the
// store state was left unchanged.
var (
	ErrProposalNotFound      = errors.New("proposal not found")
	ErrSectionNotFound       = errors.New("section not found")
	ErrQuestionNotFound      = errors.New("question not found")
	ErrNudgeNotFound         = errors.New("nudge not found")
	ErrReviewRequestNotFound = errors.New("review request not found")
	ErrInvalidTransition     = errors.New("invalid transition")
)

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProposalNotFound) ||
		errors.Is(err, ErrSectionNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrNudgeNotFound) ||
		errors.Is(err, ErrReviewRequestNotFound)
}
