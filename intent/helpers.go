package intent

import (
	"regexp"
	"strings"
	"time"
)

// DefaultDueDays is the default proposal deadline in calendar days.
const DefaultDueDays = 30

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateClientID derives a CRM-style id from a client name:
// "Smith & Sons, LLC" becomes "CRM-smith-sons-llc".
func GenerateClientID(clientName string) string {
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(clientName), "-")
	return "CRM-" + strings.Trim(slug, "-")
}

// DefaultDueDate returns the date DefaultDueDays calendar days after now.
func DefaultDueDate(now time.Time) time.Time {
	return DueDateAfter(now, DefaultDueDays)
}

// DueDateAfter returns the date days calendar days after now. Non-positive
// values fall back to DefaultDueDays.
func DueDateAfter(now time.Time, days int) time.Time {
	if days <= 0 {
		days = DefaultDueDays
	}
	return now.AddDate(0, 0, days)
}

// DueDateFromNow returns DefaultDueDate for the current time.
func DueDateFromNow() time.Time {
	return DefaultDueDate(time.Now())
}
