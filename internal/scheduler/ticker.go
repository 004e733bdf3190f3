// Package scheduler drives periodic re-evaluation of engine state.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned by Start on a running ticker.
var ErrAlreadyRunning = errors.New("ticker already running")

// TickFunc is invoked once per tick with the tick instant. It runs on the
// ticker goroutine and must not call Stop or Suspend.
type TickFunc func(ctx context.Context, now time.Time)

// Ticker calls a TickFunc at a fixed interval on its own goroutine. Stop and
// Suspend both wait for that goroutine to exit, so a stopped or suspended
// ticker holds no timer.
type Ticker struct {
	interval time.Duration
	fn       TickFunc
	logger   *zap.Logger

	mu        sync.Mutex
	parent    context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	suspended bool
}

// New creates a stopped ticker
func New(interval time.Duration, fn TickFunc, logger *zap.Logger) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ticker{interval: interval, fn: fn, logger: logger}
}

// Start begins ticking until ctx is cancelled or Stop is called
func (t *Ticker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.parent != nil {
		return ErrAlreadyRunning
	}
	t.parent = ctx
	t.suspended = false
	t.launch(false)
	t.logger.Debug("ticker started", zap.Duration("interval", t.interval))
	return nil
}

// Stop ends ticking and waits for the loop to exit. It is safe to call on a
// stopped ticker.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.halt()
	t.parent = nil
	t.suspended = false
}

// Suspend pauses ticking without forgetting the parent context
func (t *Ticker) Suspend() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.parent == nil || t.suspended {
		return
	}
	t.halt()
	t.suspended = true
	t.logger.Debug("ticker suspended")
}

// Resume restarts a suspended ticker and fires one tick straight away so
// state catches up with the time spent suspended.
func (t *Ticker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.parent == nil || !t.suspended {
		return
	}
	t.suspended = false
	t.launch(true)
	t.logger.Debug("ticker resumed")
}

// Running reports whether the loop goroutine is active
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == nil {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// launch must be called with mu held.
func (t *Ticker) launch(immediate bool) {
	ctx, cancel := context.WithCancel(t.parent)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done
	go t.loop(ctx, done, immediate)
}

// halt must be called with mu held.
func (t *Ticker) halt() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel = nil
	t.done = nil
}

func (t *Ticker) loop(ctx context.Context, done chan struct{}, immediate bool) {
	defer close(done)

	if immediate {
		t.tick(ctx, time.Now())
	}
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.tick(ctx, now)
		}
	}
}

func (t *Ticker) tick(ctx context.Context, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("tick panicked", zap.Any("panic", r))
		}
	}()
	t.fn(ctx, now)
}
