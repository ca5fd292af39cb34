package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/notewise/internal/bootstrap"
	"github.com/kirillkom/notewise/internal/config"
	"github.com/kirillkom/notewise/internal/core/usecase"
	"github.com/kirillkom/notewise/internal/infrastructure/credential/terminal"
	"github.com/kirillkom/notewise/internal/observability/logging"
)

const (
	// commands carrying this annotation run before the passphrase gate
	skipGateAnnotation = "notewise.skip-gate"

	gateTitle       = "Unlock notewise"
	gateDescription = "Enter your passphrase to open your notes."
)

var (
	verbose bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "notewise",
	Short: "Capture short notes and let a zero-shot classifier file them",
	Long: `notewise stores short text notes, tags each one with categories from a
remote zero-shot classifier, and lets you browse, filter and bookmark them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger := logging.NewTextLogger(os.Stderr, "cli", level)
		slog.SetDefault(logger)

		if cmd.Annotations[skipGateAnnotation] != "" {
			return nil
		}
		gate := usecase.NewAuthGateUseCase(terminal.New(cfg.CredentialPath), gateTitle, gateDescription)
		return unlock(cmd.Context(), gate, bufio.NewReader(os.Stdin), os.Stderr)
	},
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, styles.Error.Render("Error: "+err.Error()))
		stop()
		os.Exit(1)
	}
}

// withApp opens the note store and services for the duration of one command.
func withApp(run func(cmd *cobra.Command, args []string, app *bootstrap.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap.New(cmd.Context(), cfg, bootstrap.WithRole("cli"))
		if err != nil {
			return fmt.Errorf("open notes: %w", err)
		}
		defer app.Close()
		return run(cmd, args, app)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}
