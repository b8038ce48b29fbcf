// Package questioncache keeps the question sets already generated for each
// category and coordinates fetches so that concurrent callers for the same
// category share one outbound request.
package questioncache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/playperu/dsaquiz/internal/quiz"
)

const defaultFetchTimeout = 90 * time.Second

// Fetcher performs one outbound request to the question generator.
type Fetcher interface {
	Fetch(ctx context.Context, category string) ([]quiz.Question, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, category string) ([]quiz.Question, error)

func (f FetcherFunc) Fetch(ctx context.Context, category string) ([]quiz.Question, error) {
	return f(ctx, category)
}

// Stats is a point-in-time view of cache activity. Hits and Misses count
// non-forced resolutions; callers that share one flight count once.
type Stats struct {
	Entries  int   `json:"entries"`
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Fetches  int64 `json:"fetches"`
	Failures int64 `json:"failures"`
}

type Option func(*Cache)

// WithFetchTimeout bounds each outbound fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// Cache maps a category to the last question set fetched for it. Entries
// live as long as the Cache; only a forced refresh overwrites one.
type Cache struct {
	fetcher      Fetcher
	logger       *slog.Logger
	fetchTimeout time.Duration

	mu      sync.RWMutex
	entries map[string][]quiz.Question

	// Non-forced and forced fetches use distinct keys so a forced refresh
	// never joins a flight that may be answered from the cached entry.
	flights singleflight.Group

	hits     atomic.Int64
	misses   atomic.Int64
	fetches  atomic.Int64
	failures atomic.Int64
}

func New(fetcher Fetcher, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		fetcher:      fetcher,
		logger:       logger,
		fetchTimeout: defaultFetchTimeout,
		entries:      make(map[string][]quiz.Question),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the question set for category. Without forceRefresh a
// cached set is returned without any network access. Otherwise exactly one
// fetch runs per (category, forceRefresh) no matter how many callers are
// waiting, and every waiter receives the same result or the same error.
//
// A failed fetch never touches the cached entry. If ctx ends while waiting,
// Resolve returns ctx.Err() and the fetch carries on for the other waiters.
func (c *Cache) Resolve(ctx context.Context, category string, forceRefresh bool) ([]quiz.Question, error) {
	if strings.TrimSpace(category) == "" {
		return nil, fmt.Errorf("%w: category is required", quiz.ErrInvalidInput)
	}

	if !forceRefresh {
		if questions, ok := c.Lookup(category); ok {
			c.hits.Add(1)
			c.logger.Debug("using cached questions", "category", category, "count", len(questions))
			return questions, nil
		}
	}

	ch := c.flights.DoChan(flightKey(category, forceRefresh), func() (any, error) {
		// Double-check: a flight for this key may have populated the entry
		// between our lookup and joining the group.
		if !forceRefresh {
			if questions, ok := c.Lookup(category); ok {
				c.hits.Add(1)
				return questions, nil
			}
			c.misses.Add(1)
		}
		return c.fetch(context.WithoutCancel(ctx), category, forceRefresh)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]quiz.Question), nil
	}
}

func (c *Cache) fetch(ctx context.Context, category string, forced bool) ([]quiz.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	c.fetches.Add(1)
	c.logger.Info("fetching questions", "category", category, "forced", forced)
	start := time.Now()

	questions, err := c.fetcher.Fetch(ctx, category)
	if err == nil {
		err = quiz.ValidateSet(questions)
	}
	if err != nil {
		c.failures.Add(1)
		err = classify(err)
		c.logger.Error("fetching questions failed", "category", category, "forced", forced, "error", err)
		return nil, err
	}

	questions = quiz.Clone(questions)
	c.mu.Lock()
	if current, ok := c.entries[category]; ok && !forced {
		// A forced refresh stored a set while this plain fetch ran; only
		// forced refreshes replace an entry.
		c.mu.Unlock()
		c.logger.Debug("keeping newer cached questions", "category", category)
		return current, nil
	}
	c.entries[category] = questions
	c.mu.Unlock()

	c.logger.Info("cached questions",
		"category", category,
		"count", len(questions),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return questions, nil
}

// Lookup returns the cached set for category without fetching.
func (c *Cache) Lookup(category string) ([]quiz.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	questions, ok := c.entries[category]
	return questions, ok
}

// Categories lists the categories that currently have a cached set.
func (c *Cache) Categories() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.entries))
	for category := range c.entries {
		out = append(out, category)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()
	return Stats{
		Entries:  entries,
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Fetches:  c.fetches.Load(),
		Failures: c.failures.Load(),
	}
}

func flightKey(category string, forced bool) string {
	if forced {
		return "refresh\x00" + category
	}
	return "cached\x00" + category
}

// classify keeps generator errors inside the fetch taxonomy: anything that
// is not already an invalid response is a failed fetch.
func classify(err error) error {
	if errors.Is(err, quiz.ErrInvalidResponse) || errors.Is(err, quiz.ErrFetchFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", quiz.ErrFetchFailed, err)
}
