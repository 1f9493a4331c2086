// Package main provides the semproposal binary entry point.
// Semproposal manages sales proposals: sections with confidence and
// approval state, open questions, nudges, and human review escalations.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/c360studio/semproposal/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semproposal"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions are the global flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string

	// logOutput overrides stderr for tests.
	logOutput io.Writer
}

func rootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Sales proposal workflow engine",
		Long: `Semproposal drafts and tracks sales proposals.

Each proposal is made of ordered sections with a confidence score and an
approval state. Open questions and nudges point at what still needs work,
and sections can be escalated to a human reviewer.

Talk to the copilot with "semproposal chat", or use the subcommands directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")

	cmd.AddCommand(
		chatCmd(opts),
		serveCmd(opts),
		listCmd(opts),
		showCmd(opts),
		statusCmd(opts),
		seedCmd(opts),
		templateCmd(opts),
		duplicateCmd(opts),
		deleteCmd(opts),
		sweepCmd(opts),
		sectionCmd(opts),
		escalateCmd(opts),
		commentCmd(opts),
		questionCmd(opts),
		nudgeCmd(opts),
		reviewStatusCmd(opts),
		sourceCmd(opts),
		configCmd(opts),
	)

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// parseLevel maps a level name to a slog level, defaulting to info.
func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger writes text logs to a terminal and JSON logs otherwise.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}

// loadConfig loads layered configuration and builds the logger. The
// --log-level flag wins over log.level from config.
func (o *rootOptions) loadConfig() (*config.Config, *slog.Logger, error) {
	bootstrap := newLogger(o.logWriter(), parseLevel(o.logLevel))
	cfg, err := config.NewLoader(bootstrap).Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = strings.ToLower(o.logLevel)
	}
	logger := newLogger(o.logWriter(), parseLevel(cfg.Log.Level))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func (o *rootOptions) logWriter() io.Writer {
	if o.logOutput != nil {
		return o.logOutput
	}
	return os.Stderr
}
