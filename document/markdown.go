// Package document assembles a proposal into a Markdown deliverable and
// renders it to HTML.
package document

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/c360studio/semproposal/proposal"
)

// Document is an assembled proposal.
type Document struct {
	ProposalID string
	Title      string
	Markdown   string
}

// Options controls assembly.
type Options struct {
	// IncludeSources lists each section's sources under its content.
	IncludeSources bool

	// IncludeQuestions appends open high-priority questions.
	IncludeQuestions bool
}

// DefaultOptions returns the options used by Assemble.
func DefaultOptions() Options {
	return Options{IncludeSources: true, IncludeQuestions: true}
}

// Assemble renders p with DefaultOptions.
func Assemble(p *proposal.Proposal) Document {
	return NewTransformer(DefaultOptions()).Transform(p)
}

// Transformer converts a proposal to Markdown.
type Transformer struct {
	opts Options
}

// NewTransformer creates a new Markdown transformer.
func NewTransformer(opts Options) *Transformer {
	return &Transformer{opts: opts}
}

// Transform assembles the proposal. Sections are written in Order.
func (t *Transformer) Transform(p *proposal.Proposal) Document {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(p.Title)
	sb.WriteString("\n\n")

	t.writeMetadata(&sb, p)

	sections := orderedSections(p.Sections)
	if len(sections) > 0 {
		sb.WriteString("## Contents\n\n")
		for i, sec := range sections {
			fmt.Fprintf(&sb, "%d. [%s](#%s)\n", i+1, sec.Title, anchor(sec.Title))
		}
		sb.WriteString("\n")
	}

	for _, sec := range sections {
		t.writeSection(&sb, sec)
	}

	if t.opts.IncludeQuestions {
		t.writeQuestions(&sb, p)
	}

	sb.WriteString("---\n\n")
	sb.WriteString("**Status:** ")
	sb.WriteString(p.Status.String())
	sb.WriteString("\n")

	return Document{ProposalID: p.ID, Title: p.Title, Markdown: sb.String()}
}

func (t *Transformer) writeMetadata(sb *strings.Builder, p *proposal.Proposal) {
	rows := [][2]string{
		{"Client", p.ClientName},
		{"Client ID", p.ClientID},
		{"Opportunity Value", formatUSD(p.OpportunityValue)},
		{"Owner", p.Owner.Name},
		{"Due", formatDate(p.DueDate)},
		{"Overall Confidence", formatPercent(p.OverallConfidence)},
		{"Completion", fmt.Sprintf("%d%%", proposal.CompletionPercentage(p))},
		{"Word Count", fmt.Sprintf("%d", p.TotalWordCount)},
	}
	if p.Industry != "" {
		rows = append(rows, [2]string{"Industry", p.Industry})
	}

	sb.WriteString("| Field | Value |\n|---|---|\n")
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(sb, "| %s | %s |\n", r[0], escapeCell(r[1]))
	}
	sb.WriteString("\n")

	if len(p.Stakeholders) > 0 {
		sb.WriteString("**Stakeholders:**\n")
		for _, s := range p.Stakeholders {
			fmt.Fprintf(sb, "- %s, %s", s.Name, s.Title)
			if s.Email != "" {
				fmt.Fprintf(sb, " (%s)", s.Email)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
}

func (t *Transformer) writeSection(sb *strings.Builder, sec proposal.Section) {
	sb.WriteString("## ")
	sb.WriteString(sec.Title)
	sb.WriteString("\n\n")
	fmt.Fprintf(sb, "_%s · confidence %s_\n\n", approvalLabel(sec.ApprovalState), formatPercent(sec.Confidence))

	if content := strings.TrimSpace(sec.Content); content != "" {
		sb.WriteString(content)
		sb.WriteString("\n\n")
	}

	if sec.ReviewerNotes != "" {
		sb.WriteString("> **Reviewer notes:** ")
		sb.WriteString(sec.ReviewerNotes)
		sb.WriteString("\n\n")
	}

	if t.opts.IncludeSources && len(sec.Sources) > 0 {
		sb.WriteString("**Sources:**\n")
		for _, src := range sec.Sources {
			sb.WriteString("- ")
			if strings.HasPrefix(src.Reference, "http://") || strings.HasPrefix(src.Reference, "https://") {
				fmt.Fprintf(sb, "[%s](%s)", src.Title, src.Reference)
			} else {
				sb.WriteString(src.Title)
			}
			fmt.Fprintf(sb, " (%s)\n", src.Type)
		}
		sb.WriteString("\n")
	}
}

func (t *Transformer) writeQuestions(sb *strings.Builder, p *proposal.Proposal) {
	var open []proposal.OpenQuestion
	for _, q := range p.OpenQuestions {
		if !q.Dismissed && q.Priority == proposal.PriorityHigh {
			open = append(open, q)
		}
	}
	if len(open) == 0 {
		return
	}

	sb.WriteString("## Open Questions\n\n")
	for _, q := range open {
		sb.WriteString("- **")
		sb.WriteString(q.Question)
		sb.WriteString("**")
		if q.Rationale != "" {
			sb.WriteString(": ")
			sb.WriteString(q.Rationale)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// orderedSections returns a copy of sections sorted by Order. Ties keep
// their stored position.
func orderedSections(sections []proposal.Section) []proposal.Section {
	out := append([]proposal.Section(nil), sections...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

func approvalLabel(s proposal.ApprovalState) string {
	switch s {
	case proposal.ApprovalDraft:
		return "Draft"
	case proposal.ApprovalPending:
		return "Pending approval"
	case proposal.ApprovalApproved:
		return "Approved"
	case proposal.ApprovalRejected:
		return "Rejected"
	case proposal.ApprovalNeedsRevision:
		return "Needs revision"
	default:
		return string(s)
	}
}

// anchor mirrors the heading ids goldmark generates with auto heading ids:
// ASCII alphanumerics lower-cased, space, '-' and '_' become '-', and
// everything else is dropped.
func anchor(title string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + 'a' - 'A')
		case r == ' ' || r == '\t' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return b.String()
}

func formatUSD(v float64) string {
	whole := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
