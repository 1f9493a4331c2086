package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/semproposal/proposal"
	"github.com/c360studio/semproposal/source"
)

func sectionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section",
		Short: "Edit and review proposal sections",
	}

	review := func(use, short string, apply func(s *proposal.Store, pid, sid, notes string) error) *cobra.Command {
		var notes string
		c := &cobra.Command{
			Use:   use + " <proposal-id> <section-id>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
				if err := apply(app.store, args[0], args[1], notes); err != nil {
					return err
				}
				p, _ := app.store.GetProposal(args[0])
				sec, _ := p.SectionByID(args[1])
				out.printf("%s is now %s (%d%% complete)\n", sec.Title, sec.ApprovalState, proposal.CompletionPercentage(p))
				return nil
			}),
		}
		c.Flags().StringVar(&notes, "notes", "", "Reviewer notes")
		return c
	}

	cmd.AddCommand(
		review("approve", "Approve a section", (*proposal.Store).ApproveSection),
		review("reject", "Reject a section", (*proposal.Store).RejectSection),
		review("revise", "Request a revision of a section", (*proposal.Store).RequestRevisionSection),
		sectionAddCmd(opts),
		sectionEditCmd(opts),
		sectionDeleteCmd(opts),
		sectionReorderCmd(opts),
	)
	return cmd
}

func sectionAddCmd(opts *rootOptions) *cobra.Command {
	var (
		title      string
		content    string
		confidence float64
		order      int
	)
	cmd := &cobra.Command{
		Use:   "add <proposal-id>",
		Short: "Add a section",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			if strings.TrimSpace(title) == "" {
				return fmt.Errorf("--title is required")
			}
			id, err := app.store.AddSection(args[0], proposal.Section{
				Title:         title,
				Content:       content,
				Confidence:    confidence,
				ApprovalState: proposal.ApprovalDraft,
				Order:         order,
				ModifiedBy:    app.cfg.Owner.Name,
				WordCount:     proposal.EstimateWordCount(content),
			})
			if err != nil {
				return err
			}
			out.printf("Added section %s\n", id)
			return nil
		}),
	}
	cmd.Flags().StringVar(&title, "title", "", "Section title")
	cmd.Flags().StringVar(&content, "content", "", "Section content (Markdown)")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.5, "Confidence in [0,1]")
	cmd.Flags().IntVar(&order, "order", 0, "Position; 0 appends")
	return cmd
}

func sectionEditCmd(opts *rootOptions) *cobra.Command {
	var (
		title      string
		content    string
		confidence float64
	)
	cmd := &cobra.Command{
		Use:   "edit <proposal-id> <section-id>",
		Short: "Change a section's title, content, or confidence",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			u := proposal.SectionUpdate{ModifiedBy: proposal.Ptr(app.cfg.Owner.Name)}
			flags := 0
			if title != "" {
				u.Title = proposal.Ptr(title)
				flags++
			}
			if content != "" {
				u.Content = proposal.Ptr(content)
				u.WordCount = proposal.Ptr(proposal.EstimateWordCount(content))
				flags++
			}
			if confidence >= 0 {
				u.Confidence = proposal.Ptr(confidence)
				flags++
			}
			if flags == 0 {
				return fmt.Errorf("nothing to change; pass --title, --content, or --confidence")
			}
			if err := app.store.UpdateSection(args[0], args[1], u); err != nil {
				return err
			}
			p, _ := app.store.GetProposal(args[0])
			out.printf("Updated %s; proposal confidence %s, %d words\n", args[1], percent(p.OverallConfidence), p.TotalWordCount)
			return nil
		}),
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&content, "content", "", "New content (Markdown)")
	cmd.Flags().Float64Var(&confidence, "confidence", -1, "New confidence in [0,1]")
	return cmd
}

func sectionDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <proposal-id> <section-id>",
		Short: "Delete a section",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			if err := app.store.DeleteSection(args[0], args[1]); err != nil {
				return err
			}
			out.printf("Deleted section %s\n", args[1])
			return nil
		}),
	}
}

func sectionReorderCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <proposal-id> <section-id>...",
		Short: "Reorder sections; sections not listed are removed",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			if err := app.store.ReorderSections(args[0], args[1:]); err != nil {
				return err
			}
			p, _ := app.store.GetProposal(args[0])
			out.outline(p)
			return nil
		}),
	}
}

func escalateCmd(opts *rootOptions) *cobra.Command {
	var (
		reason    string
		assignee  proposal.Person
		sections  []string
		questions []string
	)
	cmd := &cobra.Command{
		Use:   "escalate <proposal-id>",
		Short: "Request human review",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			if strings.TrimSpace(reason) == "" {
				return fmt.Errorf("--reason is required")
			}
			if assignee.Name == "" {
				return fmt.Errorf("--assignee-name is required")
			}
			id, err := app.store.CreateReviewRequest(args[0], proposal.ReviewRequestInput{
				Reason:             reason,
				Assignee:           assignee,
				RelatedSectionIDs:  sections,
				RelatedQuestionIDs: questions,
			})
			if err != nil {
				return err
			}
			out.printf("Created review request %s for %s\n", id, assignee.Name)
			return nil
		}),
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Why review is needed")
	cmd.Flags().StringVar(&assignee.ID, "assignee-id", "", "Reviewer id")
	cmd.Flags().StringVar(&assignee.Name, "assignee-name", "", "Reviewer name")
	cmd.Flags().StringVar(&assignee.Email, "assignee-email", "", "Reviewer email")
	cmd.Flags().StringSliceVar(&sections, "section", nil, "Related section id (repeatable)")
	cmd.Flags().StringSliceVar(&questions, "question", nil, "Related question id (repeatable)")
	return cmd
}

func commentCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <proposal-id> <review-id> <message>...",
		Short: "Comment on a review request",
		Args:  cobra.MinimumNArgs(3),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			if err := app.store.AddReviewComment(args[0], args[1], strings.Join(args[2:], " ")); err != nil {
				return err
			}
			out.printf("Commented on %s\n", args[1])
			return nil
		}),
	}
}

func reviewStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "review-status <proposal-id> <review-id> <assigned|in_progress|resolved>",
		Short: "Move a review request forward",
		Args:  cobra.ExactArgs(3),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			status := proposal.ReviewStatus(args[2])
			if err := app.store.UpdateReviewStatus(args[0], args[1], status); err != nil {
				return err
			}
			out.printf("Review %s is now %s\n", args[1], status)
			return nil
		}),
	}
}

func questionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "question",
		Short: "Manage open questions",
	}

	var (
		rationale string
		priority  string
		sections  []string
		category  string
	)
	add := &cobra.Command{
		Use:   "add <proposal-id> <question>...",
		Short: "Add an open question",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			prio := proposal.Priority(priority)
			if !prio.IsValid() {
				return fmt.Errorf("unknown priority %q", priority)
			}
			id, err := app.store.AddQuestion(args[0], proposal.OpenQuestion{
				Question:          strings.Join(args[1:], " "),
				Rationale:         rationale,
				Priority:          prio,
				RelatedSectionIDs: sections,
				Category:          category,
			})
			if err != nil {
				return err
			}
			out.printf("Added question %s\n", id)
			return nil
		}),
	}
	add.Flags().StringVar(&rationale, "rationale", "", "Why this matters")
	add.Flags().StringVar(&priority, "priority", string(proposal.PriorityMedium), "high, medium, or low")
	add.Flags().StringSliceVar(&sections, "section", nil, "Related section id (repeatable)")
	add.Flags().StringVar(&category, "category", "", "Category label")

	dismiss := &cobra.Command{
		Use:   "dismiss <proposal-id> <question-id>",
		Short: "Dismiss an open question",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			if err := app.store.DismissQuestion(args[0], args[1]); err != nil {
				return err
			}
			out.printf("Dismissed %s\n", args[1])
			return nil
		}),
	}
	resolve := &cobra.Command{
		Use:   "resolve <proposal-id> <question-id>",
		Short: "Resolve an open question",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			if err := app.store.ResolveQuestion(args[0], args[1]); err != nil {
				return err
			}
			out.printf("Resolved %s\n", args[1])
			return nil
		}),
	}
	cmd.AddCommand(add, dismiss, resolve)
	return cmd
}

func nudgeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nudge",
		Short: "Manage nudges",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "dismiss <proposal-id> <nudge-id>",
		Short: "Dismiss a nudge",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			if err := app.store.DismissNudge(args[0], args[1]); err != nil {
				return err
			}
			out.printf("Dismissed %s\n", args[1])
			return nil
		}),
	})
	return cmd
}

func sourceCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Attach sources to sections",
	}

	var relevance float64
	add := &cobra.Command{
		Use:   "add <proposal-id> <section-id> <https-url>",
		Short: "Fetch a web page and attach it as a section source",
		Args:  cobra.ExactArgs(3),
		RunE: withApp(opts, func(ctx context.Context, app *App, out *printer, args []string) error {
			ing := app.Ingester()
			return attachSource(app, out, args[0], args[1], func() (*proposal.Source, error) {
				return ing.Ingest(ctx, args[2], relevance)
			})
		}),
	}
	add.Flags().Float64Var(&relevance, "relevance", 0.7, "Relevance score in [0,1]")

	var docRelevance float64
	importDoc := &cobra.Command{
		Use:   "import <proposal-id> <section-id> <file.md|glob>...",
		Short: "Attach local Markdown files, such as meeting notes, as section sources",
		Long: `Attach local Markdown files as section sources.

Each path may be a glob with * or ** wildcards, e.g. 'notes/**/*.md'.
An optional YAML frontmatter block sets title, type (meeting_notes, email,
internal_wiki, ...), author, updated, and reference.`,
		Args: cobra.MinimumNArgs(3),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			files, err := source.ResolveFiles(args[2:])
			if err != nil {
				return err
			}
			conv := source.NewConverter()
			for _, file := range files {
				err := attachSource(app, out, args[0], args[1], func() (*proposal.Source, error) {
					content, err := os.ReadFile(file)
					if err != nil {
						return nil, err
					}
					return conv.FromMarkdown(file, content, docRelevance)
				})
				if err != nil {
					return err
				}
			}
			return nil
		}),
	}
	importDoc.Flags().Float64Var(&docRelevance, "relevance", 0.8, "Relevance score in [0,1]")

	cmd.AddCommand(add, importDoc)
	return cmd
}

// attachSource loads a source and appends it to the section's sources,
// replacing any source with the same id. The section is checked before load
// runs so a bad id does not cost a fetch.
func attachSource(app *App, out *printer, pid, sid string, load func() (*proposal.Source, error)) error {
	p, err := app.ResolveProposal(pid)
	if err != nil {
		return err
	}
	sec, ok := p.SectionByID(sid)
	if !ok {
		return fmt.Errorf("%w: %s", proposal.ErrSectionNotFound, sid)
	}

	src, err := load()
	if err != nil {
		return err
	}

	sources := make([]proposal.Source, 0, len(sec.Sources)+1)
	for _, s := range sec.Sources {
		if s.ID != src.ID {
			sources = append(sources, s)
		}
	}
	sources = append(sources, *src)
	if err := app.store.UpdateSection(p.ID, sid, proposal.SectionUpdate{Sources: &sources}); err != nil {
		return err
	}
	out.printf("Attached %q (%s) to %s\n", src.Title, src.ID, sec.Title)
	return nil
}
