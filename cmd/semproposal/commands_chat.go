package main

import (
	"bufio"
	"context"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/semproposal/copilot"
	"github.com/c360studio/semproposal/intent"
)

// background holds the chat and serve flags that start long-running work.
type background struct {
	metricsAddr string
	watch       bool
}

func (b *background) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&b.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address; overrides config")
	cmd.Flags().BoolVar(&b.watch, "watch", false, "Reload when the snapshot file changes on disk")
}

// start launches the watcher and metrics server as configured.
func (b *background) start(ctx context.Context, app *App, out *printer) error {
	if b.watch || app.cfg.Storage.Watch {
		if err := app.StartWatcher(ctx); err != nil {
			return err
		}
	}
	addr := b.metricsAddr
	if addr == "" {
		addr = app.cfg.Metrics.Addr
	}
	if addr != "" {
		srv, err := app.StartMetrics(ctx, addr)
		if err != nil {
			return err
		}
		out.println(out.faint.Render("Metrics on http://" + srv.Addr() + "/metrics"))
	}
	return nil
}

func chatCmd(opts *rootOptions) *cobra.Command {
	var bg background
	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: "Talk to the proposal copilot",
		Long: `Talk to the proposal copilot.

With a message, answer it and exit:

  semproposal chat create proposal for Acme Corp worth 750K

Without one, start an interactive session. Type "exit" to leave.`,
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, app *App, out *printer, args []string) error {
		assistant := app.Assistant()
		if len(args) > 0 {
			respond(app, out, assistant.Handle(strings.Join(args, " ")))
			return nil
		}

		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := bg.start(ctx, app, out); err != nil {
			return err
		}
		return chatLoop(ctx, app, assistant, out, cmd.InOrStdin())
	})
	bg.register(cmd)
	return cmd
}

// chatLoop reads one message per line until EOF, "exit", or cancellation.
func chatLoop(ctx context.Context, app *App, assistant *copilot.Assistant, out *printer, in io.Reader) error {
	out.println(copilot.Greeting)

	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
		close(lines)
	}()

	for {
		out.printf("\n> ")
		select {
		case <-ctx.Done():
			out.println()
			return nil
		case line, ok := <-lines:
			if !ok {
				out.println()
				return <-errs
			}
			line = strings.TrimSpace(line)
			switch strings.ToLower(line) {
			case "":
				continue
			case "exit", "quit":
				return nil
			}
			respond(app, out, assistant.Handle(line))
		}
	}
}

// respond prints the reply and, for create and view, the proposal outline.
func respond(app *App, out *printer, reply copilot.Reply) {
	out.println(reply.Text)
	switch reply.Intent.Type {
	case intent.TypeCreateProposal, intent.TypeViewProposal:
		if p, ok := app.store.GetProposal(reply.ProposalID); ok {
			out.println()
			out.outline(p)
		}
	}
}

func serveCmd(opts *rootOptions) *cobra.Command {
	var bg background
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Keep the store loaded, watching for changes and serving metrics",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, app *App, out *printer, _ []string) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := bg.start(ctx, app, out); err != nil {
				return err
			}
			app.logger.Info("Semproposal ready",
				"version", Version,
				"backend", app.cfg.Storage.Backend,
				"proposals", len(app.store.GetAllProposals()))
			<-ctx.Done()
			return nil
		}),
	}
	bg.register(cmd)
	return cmd
}
