package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/playperu/dsaquiz/internal/catalog"
	"github.com/playperu/dsaquiz/internal/config"
	"github.com/playperu/dsaquiz/internal/database"
	"github.com/playperu/dsaquiz/internal/generator"
	"github.com/playperu/dsaquiz/internal/migrations"
	"github.com/playperu/dsaquiz/internal/questioncache"
	"github.com/playperu/dsaquiz/internal/results"
	"github.com/playperu/dsaquiz/internal/server"
	"github.com/playperu/dsaquiz/internal/session"
)

const janitorInterval = time.Minute

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	if err := config.LoadEnvFile(".env"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	if cfg.DBPath != database.Memory {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)
	store := results.NewStore(db)

	// --- Questions ---
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	source, kind, err := generator.New(generator.Options{
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
	logger.Info("question generator ready", "source", kind, "categories", cat.Len())

	cache := questioncache.New(source, logger, questioncache.WithFetchTimeout(cfg.FetchTimeout))

	// --- Sessions ---
	broker := server.NewBroker()
	sessions := session.NewManager(cache, logger, session.ManagerOptions{
		Config: session.Config{
			QuestionSeconds: cfg.QuestionSeconds,
			RevealSeconds:   cfg.RevealSeconds,
		},
		IdleTTL:  cfg.SessionIdleTTL,
		OnChange: broker.Publish,
		OnComplete: func(id, category string, summary session.Summary) {
			r := results.FromSummary(id, category, summary, time.Now())
			if _, err := store.Record(context.Background(), r); err != nil {
				logger.Error("recording result failed", "session_id", id, "error", err)
			}
		},
		OnClose: broker.Close,
	})

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, server.Deps{
		Logger:    logger,
		Catalog:   cat,
		Generator: source,
		Cache:     cache,
		Sessions:  sessions,
		Broker:    broker,
		Results:   store,
		Checkers:  map[string]server.Checker{"sqlite": database.Checker{DB: db}},
		SPADir:    cfg.SPADir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	g.Go(func() error {
		return sessions.RunJanitor(gctx, janitorInterval)
	})

	return g.Wait()
}
