// Package intent maps a line of free-text chat input to a structured command.
//
// Rules are tried in a fixed order and the first match wins: create, view,
// list. Input that matches nothing is TypeUnknown with zero confidence.
package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// Type identifies a parsed command.
type Type string

const (
	TypeCreateProposal Type = "create_proposal"
	TypeViewProposal   Type = "view_proposal"
	TypeListProposals  Type = "list_proposals"
	TypeUnknown        Type = "unknown"
)

// String returns the string representation of the intent type.
func (t Type) String() string {
	return string(t)
}

// Parameter keys carried in Intent.Params.
const (
	ParamClientName       = "client_name"
	ParamOpportunityValue = "opportunity_value"
	ParamQuery            = "query"
)

// DefaultOpportunityValue is used when a create command names no amount.
const DefaultOpportunityValue = 1_000_000

// Intent is the result of parsing one line of input.
type Intent struct {
	Type       Type           `json:"type"`
	Params     map[string]any `json:"params"`
	Confidence float64        `json:"confidence"`
}

// ClientName returns the client name of a create command.
func (i Intent) ClientName() string {
	s, _ := i.Params[ParamClientName].(string)
	return s
}

// OpportunityValue returns the deal value of a create command in USD.
func (i Intent) OpportunityValue() float64 {
	v, _ := i.Params[ParamOpportunityValue].(float64)
	return v
}

// Query returns the search text of a view command.
func (i Intent) Query() string {
	s, _ := i.Params[ParamQuery].(string)
	return s
}

type rule struct {
	typ        Type
	pattern    *regexp.Regexp
	extract    func(m []string) map[string]any
	confidence float64
}

var rules = []rule{
	{
		typ:        TypeCreateProposal,
		pattern:    regexp.MustCompile(`create\s+(?:a\s+)?proposal\s+for\s+(.+?)(?:\s+worth\s+\$?([\d,]+)k?)?$`),
		extract:    extractCreate,
		confidence: 0.9,
	},
	{
		typ:     TypeViewProposal,
		pattern: regexp.MustCompile(`(?:show|view|open|display)\s+(?:the\s+)?proposal\s+(?:for\s+)?(.+)`),
		extract: func(m []string) map[string]any {
			return map[string]any{ParamQuery: strings.TrimSpace(m[1])}
		},
		confidence: 0.85,
	},
	{
		typ:        TypeListProposals,
		pattern:    regexp.MustCompile(`(?:list|show|display)\s+(?:all\s+)?(?:my\s+)?proposals?`),
		extract:    func([]string) map[string]any { return map[string]any{} },
		confidence: 0.9,
	},
}

// Parse classifies input. Matching is case-insensitive because input is
// lower-cased and trimmed first, so extracted text is lower-case.
func Parse(input string) Intent {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}
		return Intent{Type: r.typ, Params: r.extract(m), Confidence: r.confidence}
	}
	return Intent{Type: TypeUnknown, Params: map[string]any{}, Confidence: 0}
}

// extractCreate reads the client name and amount. The amount is always in
// thousands whether or not the k suffix is present.
func extractCreate(m []string) map[string]any {
	value := float64(DefaultOpportunityValue)
	if amount := strings.ReplaceAll(m[2], ",", ""); amount != "" {
		if n, err := strconv.ParseInt(amount, 10, 64); err == nil && n <= 1<<53/1000 {
			value = float64(n * 1000)
		}
	}
	return map[string]any{
		ParamClientName:       strings.TrimSpace(m[1]),
		ParamOpportunityValue: value,
	}
}
