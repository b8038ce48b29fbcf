package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/dsaquiz/internal/catalog"
	"github.com/playperu/dsaquiz/internal/database"
	"github.com/playperu/dsaquiz/internal/generator"
	"github.com/playperu/dsaquiz/internal/migrations"
	"github.com/playperu/dsaquiz/internal/questioncache"
	"github.com/playperu/dsaquiz/internal/quiz"
	"github.com/playperu/dsaquiz/internal/results"
	"github.com/playperu/dsaquiz/internal/session"
)

// fakeSource serves the built-in fixture unless fail is set.
type fakeSource struct {
	calls   atomic.Int32
	fixture *generator.Fixture
	fail    atomic.Bool
}

func (f *fakeSource) Fetch(ctx context.Context, category string) ([]quiz.Question, error) {
	f.calls.Add(1)
	if f.fail.Load() {
		return nil, quiz.ErrFetchFailed
	}
	return f.fixture.Fetch(ctx, category)
}

type testEnv struct {
	router chi.Router
	deps   Deps
	source *fakeSource
	clock  *session.ManualClock
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := discardLogger()

	db, err := database.Open(ctx, database.Memory)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	store := results.NewStore(db)

	fixture, err := generator.DefaultFixture()
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	source := &fakeSource{fixture: fixture}
	cache := questioncache.New(source, logger)
	broker := NewBroker()
	clock := session.NewManualClock()

	sessions := session.NewManager(cache, logger, session.ManagerOptions{
		Config:   session.Config{QuestionSeconds: 3, RevealSeconds: 1},
		Clock:    clock,
		OnChange: broker.Publish,
		OnComplete: func(id, category string, s session.Summary) {
			if _, err := store.Record(context.Background(), results.FromSummary(id, category, s, time.Now())); err != nil {
				t.Errorf("record result: %v", err)
			}
		},
		OnClose: broker.Close,
	})
	t.Cleanup(sessions.CloseAll)

	deps := Deps{
		Logger:    logger,
		Catalog:   catalog.Default(),
		Generator: source,
		Cache:     cache,
		Sessions:  sessions,
		Broker:    broker,
		Results:   store,
		Checkers:  map[string]Checker{"sqlite": database.Checker{DB: db}},
	}
	return &testEnv{router: NewRouter(deps), deps: deps, source: source, clock: clock}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// startSession creates a session and waits for its questions to load.
func (e *testEnv) startSession(t *testing.T, category string) session.Snapshot {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/sessions", CreateSessionRequest{Category: category})
	if w.Code != http.StatusAccepted {
		t.Fatalf("create: expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var snap session.Snapshot
	decode(t, w, &snap)

	ctrl, err := e.deps.Sessions.Get(snap.ID)
	if err != nil {
		t.Fatalf("session not registered: %v", err)
	}
	ctrl.Wait()
	return ctrl.Snapshot()
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
}
