package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/c360studio/semproposal/proposal"
)

// printer renders command output. Colors are used only when out is a
// terminal.
type printer struct {
	out      io.Writer
	renderer *lipgloss.Renderer

	heading lipgloss.Style
	label   lipgloss.Style
	faint   lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
}

func newPrinter(out io.Writer) *printer {
	r := lipgloss.NewRenderer(out)
	return &printer{
		out:      out,
		renderer: r,
		heading:  r.NewStyle().Bold(true),
		label:    r.NewStyle().Width(13),
		faint:    r.NewStyle().Faint(true),
		good:     r.NewStyle().Foreground(lipgloss.Color("2")),
		warn:     r.NewStyle().Foreground(lipgloss.Color("3")),
		bad:      r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

func (p *printer) println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

func (p *printer) printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

func (p *printer) field(name, value string) {
	p.printf("%s %s\n", p.label.Render(name+":"), value)
}

func (p *printer) table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.faint).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.heading.Padding(0, 1)
			}
			return p.renderer.NewStyle().Padding(0, 1)
		})
	p.println(t.Render())
}

func (p *printer) confidence(c float64) string {
	text := percent(c)
	switch {
	case c >= 0.8:
		return p.good.Render(text)
	case c >= 0.6:
		return p.warn.Render(text)
	default:
		return p.bad.Render(text)
	}
}

func (p *printer) approval(s proposal.ApprovalState) string {
	switch s {
	case proposal.ApprovalApproved:
		return p.good.Render(string(s))
	case proposal.ApprovalRejected, proposal.ApprovalNeedsRevision:
		return p.bad.Render(string(s))
	case proposal.ApprovalPending:
		return p.warn.Render(string(s))
	default:
		return string(s)
	}
}

// proposalList renders one row per proposal, marking the active one.
func (p *printer) proposalList(proposals []*proposal.Proposal, activeID string) {
	if len(proposals) == 0 {
		p.println("No proposals.")
		return
	}
	rows := make([][]string, 0, len(proposals))
	for _, pr := range proposals {
		marker := ""
		if pr.ID == activeID {
			marker = "*"
		}
		rows = append(rows, []string{
			marker,
			pr.ID,
			pr.ClientName,
			pr.Title,
			string(pr.Status),
			usd(pr.OpportunityValue),
			p.confidence(pr.OverallConfidence),
			fmt.Sprintf("%d%%", proposal.CompletionPercentage(pr)),
			day(pr.DueDate),
		})
	}
	p.table([]string{"", "ID", "CLIENT", "TITLE", "STATUS", "VALUE", "CONF", "DONE", "DUE"}, rows)
}

// outline lists sections in order.
func (p *printer) outline(pr *proposal.Proposal) {
	rows := make([][]string, 0, len(pr.Sections))
	for _, s := range pr.Sections {
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.Order),
			s.ID,
			s.Title,
			p.approval(s.ApprovalState),
			p.confidence(s.Confidence),
			fmt.Sprintf("%d", s.WordCount),
		})
	}
	p.table([]string{"#", "SECTION", "TITLE", "STATE", "CONF", "WORDS"}, rows)
}

// status renders the proposal dashboard: headline metrics, the outline,
// low-confidence sections, and what needs attention.
func (p *printer) status(sel *proposal.Selectors, pr *proposal.Proposal, threshold float64) {
	p.println(p.heading.Render(pr.Title))
	p.field("ID", pr.ID)
	p.field("Client", pr.ClientName)
	p.field("Status", string(pr.Status))
	p.field("Value", usd(pr.OpportunityValue))
	p.field("Confidence", p.confidence(pr.OverallConfidence))
	approved := len(sel.SectionsByApprovalState(pr.ID, proposal.ApprovalApproved))
	p.field("Completion", fmt.Sprintf("%d%% (%d/%d sections approved)", sel.CompletionPercentage(pr.ID), approved, len(pr.Sections)))
	p.field("Words", fmt.Sprintf("%d", pr.TotalWordCount))
	p.field("Due", day(pr.DueDate))
	p.field("Owner", pr.Owner.Name)
	p.println()

	if len(pr.Sections) > 0 {
		p.outline(pr)
	}

	if low := sel.LowConfidenceSectionIDs(pr.ID, threshold); len(low) > 0 {
		p.println(p.warn.Render(fmt.Sprintf("Low confidence (below %s): %s", percent(threshold), strings.Join(low, ", "))))
	}

	questions := proposal.CountByPriority(sel.ActiveQuestions(pr.ID, nil))
	nudges := proposal.CountByPriority(sel.ActiveNudges(pr.ID, nil))
	p.field("Questions", priorityCounts(questions))
	p.field("Nudges", priorityCounts(nudges))

	high := sel.HighPriorityItems(pr.ID)
	if len(high.Questions)+len(high.Nudges) > 0 {
		p.println()
		p.println(p.heading.Render("Needs attention"))
		for _, q := range high.Questions {
			p.printf("  ? %s %s\n", q.Question, p.faint.Render("["+q.ID+"]"))
		}
		for _, n := range high.Nudges {
			p.printf("  ! %s %s\n", n.Message, p.faint.Render("["+n.ID+"]"))
		}
	}

	if len(pr.ReviewRequests) > 0 {
		p.println()
		p.println(p.heading.Render("Reviews"))
		for _, r := range pr.ReviewRequests {
			p.printf("  %s %s -> %s: %s (%d comments)\n", r.ID, r.Status, r.Assignee.Name, r.Reason, len(r.Comments))
		}
	}
}

func priorityCounts(counts map[proposal.Priority]int) string {
	return fmt.Sprintf("%d high, %d medium, %d low",
		counts[proposal.PriorityHigh], counts[proposal.PriorityMedium], counts[proposal.PriorityLow])
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func usd(v float64) string {
	if v >= 1_000_000 {
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	}
	return fmt.Sprintf("$%.0fK", v/1000)
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
