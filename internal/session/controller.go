package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/playperu/dsaquiz/internal/quiz"
)

// Resolver supplies question sets; *questioncache.Cache satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, category string, forceRefresh bool) ([]quiz.Question, error)
}

type ControllerOptions struct {
	Config       Config
	Clock        Clock
	TickInterval time.Duration
	Logger       *slog.Logger

	// OnChange runs under the controller lock after every applied mutation,
	// so it must not block or call back into the controller.
	OnChange func(Snapshot)
	// OnComplete runs once per completed run, outside the lock.
	OnComplete func(Summary)
}

// Controller owns one Session for the lifetime of a quiz view. It is safe
// for concurrent use: user commands, clock ticks and fetch results are
// applied one at a time under a single lock.
//
// Every fetch is tagged with the epoch current when it was requested. Reset
// and Close advance the epoch, so a result that arrives for a discarded run
// is dropped instead of applied.
type Controller struct {
	id       string
	category string
	resolver Resolver
	clock    Clock
	interval time.Duration
	logger   *slog.Logger

	onChange   func(Snapshot)
	onComplete func(Summary)

	ctx    context.Context
	cancel context.CancelFunc

	mu sync.Mutex
	// pending counts fetches not yet applied or discarded; idle is
	// signalled when it drops to zero. Both are guarded by mu.
	pending    int
	idle       *sync.Cond
	session    *Session
	epoch      uint64
	closed     bool
	stopClock  func()
	lastActive time.Time
}

func NewController(id, category string, resolver Resolver, opts ControllerOptions) *Controller {
	if opts.Clock == nil {
		opts.Clock = TickerClock{}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		id:         id,
		category:   category,
		resolver:   resolver,
		clock:      opts.Clock,
		interval:   opts.TickInterval,
		logger:     opts.Logger.With("session_id", id, "category", category),
		onChange:   opts.OnChange,
		onComplete: opts.OnComplete,
		ctx:        ctx,
		cancel:     cancel,
		session:    New(opts.Config),
		lastActive: time.Now(),
	}
	c.idle = sync.NewCond(&c.mu)
	return c
}

func (c *Controller) ID() string       { return c.id }
func (c *Controller) Category() string { return c.category }

// StartClock begins delivering ticks. Calling it again is a no-op.
func (c *Controller) StartClock() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.stopClock != nil {
		return
	}
	c.stopClock = c.clock.Every(c.interval, func() { c.Tick() })
}

// Load requests the question set for the current run in the background.
// It does nothing unless the session is loading.
func (c *Controller) Load() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.session.Phase() != PhaseLoading {
		return
	}
	c.fetchLocked(false)
}

// Reset discards a completed or failed run and requests a fresh question
// set, bypassing the cache. It reports whether the reset was applied.
func (c *Controller) Reset() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = time.Now()
	if c.closed || !c.session.Reset() {
		return false
	}
	c.epoch++
	c.logger.Info("session reset")
	c.publishLocked()
	c.fetchLocked(true)
	return true
}

func (c *Controller) fetchLocked(force bool) {
	epoch := c.epoch
	c.pending++
	go func() {
		questions, err := c.resolver.Resolve(c.ctx, c.category, force)
		c.apply(epoch, questions, err)
	}()
}

func (c *Controller) apply(epoch uint64, questions []quiz.Question, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.fetchDoneLocked()

	if c.closed || c.epoch != epoch || c.session.Phase() != PhaseLoading {
		c.logger.Debug("discarding stale fetch result", "epoch", epoch)
		return
	}
	if err != nil {
		c.session.Fail(err)
		c.logger.Warn("loading questions failed", "error", err)
	} else if err := c.session.Start(questions); err != nil {
		c.logger.Warn("question set rejected", "error", err)
	} else {
		c.logger.Info("session started", "questions", len(questions))
	}
	c.publishLocked()
}

func (c *Controller) fetchDoneLocked() {
	c.pending--
	if c.pending == 0 {
		c.idle.Broadcast()
	}
}

// Wait blocks until no fetch is outstanding: every one requested so far has
// been applied or discarded. It may run alongside Load and Reset.
func (c *Controller) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pending > 0 {
		c.idle.Wait()
	}
}

func (c *Controller) Select(index int) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = time.Now()
	if c.closed || !c.session.SelectOption(index) {
		return c.snapshotLocked(), false
	}
	c.publishLocked()
	return c.snapshotLocked(), true
}

func (c *Controller) Submit() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = time.Now()
	if c.closed || !c.session.Submit() {
		return c.snapshotLocked(), false
	}
	c.publishLocked()
	return c.snapshotLocked(), true
}

// Tick applies one clock event. Ticks after Close are ignored.
func (c *Controller) Tick() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	wasComplete := c.session.IsComplete()
	if !c.session.Tick() {
		c.mu.Unlock()
		return false
	}
	c.publishLocked()
	summary, done := c.session.Summary()
	justCompleted := done && !wasComplete
	c.mu.Unlock()

	if justCompleted {
		c.logger.Info("session completed", "score", summary.Score, "total", summary.Total)
		if c.onComplete != nil {
			c.onComplete(summary)
		}
	}
	return true
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = time.Now()
	return c.snapshotLocked()
}

func (c *Controller) Summary() (Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Summary()
}

// Close tears the view down: the clock stops, pending fetch results are
// dropped, and later commands and ticks are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.epoch++
	stop := c.stopClock
	c.stopClock = nil
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	c.cancel()
	c.logger.Info("session closed")
}

func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// LastActive is the time of the last user command or read.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := c.session.Snapshot()
	snap.ID = c.id
	snap.Category = c.category
	return snap
}

func (c *Controller) publishLocked() {
	if c.onChange != nil {
		c.onChange(c.snapshotLocked())
	}
}
