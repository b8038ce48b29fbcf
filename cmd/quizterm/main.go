package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/playperu/dsaquiz/internal/catalog"
	"github.com/playperu/dsaquiz/internal/config"
	"github.com/playperu/dsaquiz/internal/generator"
	"github.com/playperu/dsaquiz/internal/questioncache"
	"github.com/playperu/dsaquiz/internal/session"
	"github.com/playperu/dsaquiz/internal/tui"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout *os.File) error {
	if !term.IsTerminal(int(stdout.Fd())) {
		return errors.New("quizterm needs an interactive terminal")
	}
	if err := config.LoadEnvFile(".env"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// The alternate screen owns the terminal; only debug runs log, to stderr.
	var logOut io.Writer = io.Discard
	if cfg.LogLevel <= slog.LevelDebug {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	source, kind, err := generator.New(generator.Options{
		ServerURL:     cfg.QuizServerURL,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiModel,
		GeminiBaseURL: cfg.GeminiBaseURL,
		Count:         cfg.QuestionCount,
		FixtureFile:   cfg.FixtureFile,
		Client:        &http.Client{Timeout: cfg.FetchTimeout},
	})
	if err != nil {
		return fmt.Errorf("creating question generator: %w", err)
	}
	logger.Debug("question generator ready", "source", kind)

	cache := questioncache.New(source, logger, questioncache.WithFetchTimeout(cfg.FetchTimeout))
	model := tui.NewModel(cat, cache, tui.Options{
		Config: session.Config{
			QuestionSeconds: cfg.QuestionSeconds,
			RevealSeconds:   cfg.RevealSeconds,
		},
		FetchTimeout: cfg.FetchTimeout,
		NoColor:      os.Getenv("NO_COLOR") != "",
	})

	program := tea.NewProgram(model, tea.WithOutput(stdout), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
