// Package copilot turns chat input into proposal operations and replies.
package copilot

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/c360studio/semproposal/intent"
	"github.com/c360studio/semproposal/proposal"
)

// Greeting is shown when a chat session starts.
const Greeting = "Hi! I'm your Proposal Copilot. You can ask me to:\n\n" +
	"• Create proposal for [Client Name]\n" +
	"• List all proposals\n" +
	"• View proposal for [Client Name]"

const helpText = "I didn't quite understand that. Try:\n\n" +
	"• \"Create proposal for Acme Corp\"\n" +
	"• \"Create proposal for TechCo worth $500K\"\n" +
	"• \"List all proposals\"\n" +
	"• \"View proposal for Acme\""

const emptyListText = "You don't have any proposals yet. Try creating one with \"Create proposal for [Client Name]\""

// Starter section written into every proposal created from chat.
const (
	starterTitle      = "Executive Summary"
	starterConfidence = 0.6
	starterAuthor     = "AI Copilot"
)

// DefaultOwner is used when no owner is configured.
var DefaultOwner = proposal.Person{
	ID:    "user-1",
	Name:  "Current User",
	Email: "user@company.com",
}

// Reply is the assistant's answer to one line of input. ProposalID names
// the proposal the reply is about, if any.
type Reply struct {
	Intent     intent.Intent
	Text       string
	ProposalID string
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithOwner sets the owner stamped on created proposals.
func WithOwner(owner proposal.Person) Option {
	return func(a *Assistant) { a.owner = owner }
}

// WithDueInDays sets the deadline given to created proposals.
func WithDueInDays(days int) Option {
	return func(a *Assistant) { a.dueInDays = days }
}

// WithClock overrides the clock for deterministic testing.
func WithClock(clock func() time.Time) Option {
	return func(a *Assistant) { a.clock = clock }
}

// WithLogger sets the assistant logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Assistant dispatches parsed intents against a proposal engine.
type Assistant struct {
	engine    proposal.Engine
	owner     proposal.Person
	dueInDays int
	clock     func() time.Time
	logger    *slog.Logger
}

// NewAssistant creates an assistant over engine.
func NewAssistant(engine proposal.Engine, opts ...Option) *Assistant {
	a := &Assistant{
		engine:    engine,
		owner:     DefaultOwner,
		dueInDays: intent.DefaultDueDays,
		clock:     time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handle parses input and applies the resulting command.
func (a *Assistant) Handle(input string) Reply {
	parsed := intent.Parse(norm.NFC.String(input))
	a.logger.Debug("Parsed chat intent", "type", parsed.Type, "confidence", parsed.Confidence)

	switch parsed.Type {
	case intent.TypeCreateProposal:
		return a.create(parsed)
	case intent.TypeListProposals:
		return a.list(parsed)
	case intent.TypeViewProposal:
		return a.view(parsed)
	default:
		return Reply{Intent: parsed, Text: helpText}
	}
}

// DisplayName title-cases a lower-cased client name for display.
func DisplayName(clientName string) string {
	return cases.Title(language.English).String(strings.TrimSpace(clientName))
}

func (a *Assistant) create(in intent.Intent) Reply {
	now := a.clock()
	name := DisplayName(in.ClientName())
	summary := fmt.Sprintf("This proposal outlines our recommended approach for %s. "+
		"We understand your requirements and have designed a solution that addresses your key business objectives.", name)

	id := a.engine.CreateProposal(proposal.Proposal{
		Title:            name + " - Proposal",
		ClientName:       name,
		ClientID:         intent.GenerateClientID(name),
		OpportunityValue: in.OpportunityValue(),
		Status:           proposal.StatusDraft,
		Sections: []proposal.Section{{
			Title:         starterTitle,
			Content:       summary,
			Confidence:    starterConfidence,
			ApprovalState: proposal.ApprovalDraft,
			Order:         1,
			LastModified:  now,
			ModifiedBy:    starterAuthor,
			WordCount:     proposal.EstimateWordCount(summary),
		}},
		CreatedAt: now,
		DueDate:   intent.DueDateAfter(now, a.dueInDays),
		Owner:     a.owner,
	})

	a.logger.Info("Proposal created from chat", "proposal_id", id, "client", name)
	return Reply{
		Intent:     in,
		Text:       fmt.Sprintf("I've created a new proposal for **%s** worth %s. Here's the outline:", name, formatValue(in.OpportunityValue())),
		ProposalID: id,
	}
}

func (a *Assistant) list(in intent.Intent) Reply {
	proposals := a.engine.GetAllProposals()
	if len(proposals) == 0 {
		return Reply{Intent: in, Text: emptyListText}
	}

	var b strings.Builder
	b.WriteString("Here are your proposals:\n\n")
	for i, p := range proposals {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. **%s** - %s (%s, %s)", i+1, p.ClientName, p.Title, formatValue(p.OpportunityValue), p.Status)
	}
	return Reply{Intent: in, Text: b.String()}
}

// view finds the first proposal, oldest first, whose client name contains
// the query, and makes it active.
func (a *Assistant) view(in intent.Intent) Reply {
	query := strings.ToLower(in.Query())
	for _, p := range a.engine.GetAllProposals() {
		if strings.Contains(strings.ToLower(p.ClientName), query) {
			a.engine.SetActiveProposal(p.ID)
			return Reply{
				Intent:     in,
				Text:       fmt.Sprintf("Here's the proposal for **%s**:", p.ClientName),
				ProposalID: p.ID,
			}
		}
	}
	return Reply{
		Intent: in,
		Text:   fmt.Sprintf("I couldn't find a proposal matching %q. Try \"List all proposals\" to see what's available.", in.Query()),
	}
}

// formatValue renders a USD amount in thousands, e.g. $500K.
func formatValue(v float64) string {
	return fmt.Sprintf("$%.0fK", v/1000)
}
