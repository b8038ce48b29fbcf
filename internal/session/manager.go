package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/dsaquiz/internal/quiz"
)

var ErrNotFound = errors.New("session not found")

type ManagerOptions struct {
	Config       Config
	Clock        Clock
	TickInterval time.Duration
	IdleTTL      time.Duration

	OnChange   func(id string, snap Snapshot)
	OnComplete func(id, category string, summary Summary)
	// OnClose runs after a session has been torn down and forgotten.
	OnClose func(id string)
}

// Manager keeps the live controllers, one per open quiz view.
type Manager struct {
	resolver Resolver
	logger   *slog.Logger
	opts     ManagerOptions

	mu       sync.RWMutex
	sessions map[string]*Controller
}

func NewManager(resolver Resolver, logger *slog.Logger, opts ManagerOptions) *Manager {
	return &Manager{
		resolver: resolver,
		logger:   logger,
		opts:     opts,
		sessions: make(map[string]*Controller),
	}
}

// Create opens a session for category, starts its clock and begins loading
// questions in the background.
func (m *Manager) Create(category string) (*Controller, error) {
	if strings.TrimSpace(category) == "" {
		return nil, fmt.Errorf("%w: category is required", quiz.ErrInvalidInput)
	}

	id := uuid.NewString()
	opts := ControllerOptions{
		Config:       m.opts.Config,
		Clock:        m.opts.Clock,
		TickInterval: m.opts.TickInterval,
		Logger:       m.logger,
	}
	if m.opts.OnChange != nil {
		opts.OnChange = func(snap Snapshot) { m.opts.OnChange(id, snap) }
	}
	if m.opts.OnComplete != nil {
		opts.OnComplete = func(summary Summary) { m.opts.OnComplete(id, category, summary) }
	}
	ctrl := NewController(id, category, m.resolver, opts)

	m.mu.Lock()
	m.sessions[id] = ctrl
	m.mu.Unlock()

	ctrl.StartClock()
	ctrl.Load()
	m.logger.Info("session created", "session_id", id, "category", category)
	return ctrl, nil
}

func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.RLock()
	ctrl, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return ctrl, nil
}

// Close tears down and forgets one session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	ctrl, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	m.closeController(ctrl)
	return nil
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Controller)
	m.mu.Unlock()

	for _, ctrl := range sessions {
		m.closeController(ctrl)
	}
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the configured TTL and returns
// how many were closed.
func (m *Manager) Sweep(now time.Time) int {
	if m.opts.IdleTTL <= 0 {
		return 0
	}

	m.mu.Lock()
	var stale []*Controller
	for id, ctrl := range m.sessions {
		if now.Sub(ctrl.LastActive()) > m.opts.IdleTTL {
			stale = append(stale, ctrl)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, ctrl := range stale {
		m.closeController(ctrl)
	}
	if len(stale) > 0 {
		m.logger.Info("closed idle sessions", "count", len(stale))
	}
	return len(stale)
}

func (m *Manager) closeController(ctrl *Controller) {
	ctrl.Close()
	if m.opts.OnClose != nil {
		m.opts.OnClose(ctrl.ID())
	}
}

// RunJanitor sweeps idle sessions every interval until ctx is done, then
// closes whatever is left.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return nil
		case now := <-t.C:
			m.Sweep(now)
		}
	}
}
