package session

import (
	"sync"
	"time"
)

// Clock schedules fn every d until the returned stop func is called.
type Clock interface {
	Every(d time.Duration, fn func()) (stop func())
}

// TickerClock drives sessions from a time.Ticker.
type TickerClock struct{}

func (TickerClock) Every(d time.Duration, fn func()) func() {
	t := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-t.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.Stop()
			close(done)
		})
	}
}

// ManualClock fires only when Advance is called. It lets tests step a
// session through its countdown without waiting on the wall clock.
type ManualClock struct {
	mu    sync.Mutex
	next  int
	funcs map[int]func()
}

func NewManualClock() *ManualClock {
	return &ManualClock{funcs: make(map[int]func())}
}

func (c *ManualClock) Every(_ time.Duration, fn func()) func() {
	c.mu.Lock()
	id := c.next
	c.next++
	c.funcs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.funcs, id)
		c.mu.Unlock()
	}
}

// Advance fires every registered func n times.
func (c *ManualClock) Advance(n int) {
	for range n {
		c.mu.Lock()
		funcs := make([]func(), 0, len(c.funcs))
		for _, fn := range c.funcs {
			funcs = append(funcs, fn)
		}
		c.mu.Unlock()

		for _, fn := range funcs {
			fn()
		}
	}
}

// Active reports how many schedules are still registered.
func (c *ManualClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.funcs)
}
