package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/semproposal/config"
	"github.com/c360studio/semproposal/document"
	"github.com/c360studio/semproposal/fixtures"
	"github.com/c360studio/semproposal/proposal"
)

const shutdownTimeout = 5 * time.Second

// runFunc is a command body with a started App.
type runFunc func(ctx context.Context, app *App, out *printer, args []string) error

// withApp loads config, starts an App for the duration of fn, and shuts it
// down afterwards.
func withApp(opts *rootOptions, fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := opts.loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		app := NewApp(cfg, logger)
		if err := app.Start(ctx); err != nil {
			return err
		}
		defer app.Shutdown(shutdownTimeout)

		return fn(ctx, app, newPrinter(cmd.OutOrStdout()), args)
	}
}

// optionalArg returns args[i] or "".
func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func listCmd(opts *rootOptions) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List proposals",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, _ []string) error {
			proposals := app.store.GetAllProposals()
			if status != "" {
				s := proposal.Status(status)
				if !s.IsValid() {
					return fmt.Errorf("unknown status %q", status)
				}
				proposals = app.selectors.ProposalsByStatus(s)
			}
			out.proposalList(proposals, app.store.ActiveProposalID())
			return nil
		}),
	}
	cmd.Flags().StringVar(&status, "status", "", "Only list proposals with this status")
	return cmd
}

func showCmd(opts *rootOptions) *cobra.Command {
	var (
		asHTML      bool
		noSources   bool
		noQuestions bool
	)
	cmd := &cobra.Command{
		Use:   "show [proposal-id]",
		Short: "Render a proposal as Markdown or HTML",
		Long:  "Render a proposal document. Without an id the active proposal is shown.",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			p, err := app.ResolveProposal(optionalArg(args, 0))
			if err != nil {
				return err
			}
			doc := document.NewTransformer(document.Options{
				IncludeSources:   !noSources,
				IncludeQuestions: !noQuestions,
			}).Transform(p)
			if !asHTML {
				out.printf("%s", doc.Markdown)
				return nil
			}
			rendered, err := doc.HTML()
			if err != nil {
				return err
			}
			out.printf("%s", rendered)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render HTML instead of Markdown")
	cmd.Flags().BoolVar(&noSources, "no-sources", false, "Omit per-section source lists")
	cmd.Flags().BoolVar(&noQuestions, "no-questions", false, "Omit the open questions appendix")
	return cmd
}

func statusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status [proposal-id]",
		Short: "Show completion, confidence, and what needs attention",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			p, err := app.ResolveProposal(optionalArg(args, 0))
			if err != nil {
				return err
			}
			out.status(app.selectors, p, app.cfg.Workflow.LowConfidenceThreshold)
			return nil
		}),
	}
}

func seedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the Contoso sample proposal",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, _ []string) error {
			id := fixtures.Seed(app.store)
			out.printf("Seeded sample proposal %s\n", id)
			return nil
		}),
	}
}

func templateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "template [proposal-id]",
		Short: "Add any missing standard sections",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			p, err := app.ResolveProposal(optionalArg(args, 0))
			if err != nil {
				return err
			}
			added, err := app.store.ApplyStandardTemplate(p.ID)
			if err != nil {
				return err
			}
			out.printf("Added %d standard sections to %s\n", added, p.ID)
			return nil
		}),
	}
}

func duplicateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <proposal-id>",
		Short: "Copy a proposal into a new draft",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			id, err := app.store.DuplicateProposal(args[0])
			if err != nil {
				return err
			}
			out.printf("Created %s from %s\n", id, args[0])
			return nil
		}),
	}
}

func deleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <proposal-id>",
		Short: "Delete a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			if err := app.store.DeleteProposal(args[0]); err != nil {
				return err
			}
			out.printf("Deleted %s\n", args[0])
			return nil
		}),
	}
}

func sweepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep [proposal-id]",
		Short: "Remove expired nudges",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(_ context.Context, app *App, out *printer, args []string) error {
			p, err := app.ResolveProposal(optionalArg(args, 0))
			if err != nil {
				return err
			}
			removed, err := app.store.ClearExpiredNudges(p.ID)
			if err != nil {
				return err
			}
			out.printf("Removed %d expired nudges from %s\n", removed, p.ID)
			return nil
		}),
	}
}

func configCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or initialize configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default user config if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, err := opts.loadConfig()
			if err != nil {
				return err
			}
			path, err := config.NewLoader(logger).EnsureUserConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return cmd
}
