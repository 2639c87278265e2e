package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsletter-scrapers/internal/adapter/logging"
	"newsletter-scrapers/internal/config"
	"newsletter-scrapers/internal/domain/ports"
)

var (
	cfg    *config.Config
	logger ports.Logger

	outputDir *string
	logLevel  *string
)

var rootCmd = &cobra.Command{
	Use:           "scraper",
	Short:         "scraper collects HackerNews, X and WeChat items for the AI newsletter.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if *outputDir != "" {
			loaded.OutputDir = *outputDir
		}
		if *logLevel != "" {
			loaded.LogLevel = *logLevel
		}
		cfg = loaded
		logger = logging.New(logging.NewSlog(os.Stderr, cfg.LogLevel, cfg.LogFormat))
		return nil
	},
}

func init() {
	outputDir = rootCmd.PersistentFlags().String("output-dir", "", "Directory for JSON output (default $OUTPUT_DIR or ./output).")
	logLevel = rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error (default $LOG_LEVEL or info).")
}

// ExecuteContext runs the CLI and exits 1 on failure, printing a remedy when
// the error has a known fix.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		var h hintError
		if errors.As(err, &h) {
			fmt.Fprintln(os.Stderr, "👉", h.hint)
		}
		os.Exit(1)
	}
}

type hintError struct {
	err  error
	hint string
}

func (h hintError) Error() string { return h.err.Error() }

func (h hintError) Unwrap() error { return h.err }

func withHint(err error, hint string) error {
	if err == nil || hint == "" {
		return err
	}
	return hintError{err: err, hint: hint}
}

func checkLimit(limit int) error {
	if limit < 1 {
		return fmt.Errorf("--limit must be at least 1, got %d", limit)
	}
	return nil
}
