package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"
	"github.com/notexe/remindme/internal/reminder"
)

// Dispatcher performs the side effects of a fired reminder.
type Dispatcher interface {
	Dispatch(ctx context.Context, r reminder.Reminder) error
}

// Scheduler runs the due-check loop over a reminder store.
type Scheduler struct {
	store      *reminder.Store
	dispatcher Dispatcher
	interval   time.Duration
	clock      clock.Clock
	logger     *log.Logger
	notifyCh   chan struct{}
	observer   func([]reminder.Reminder)
	timeout    time.Duration

	mu          sync.Mutex
	lastChecked time.Time

	inflight sync.WaitGroup
}

// DefaultDispatchTimeout bounds the side effects of one fired reminder.
const DefaultDispatchTimeout = 20 * time.Second

type Option func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithObserver registers fn to run after every pass that fired reminders.
func WithObserver(fn func([]reminder.Reminder)) Option {
	return func(s *Scheduler) { s.observer = fn }
}

// WithDispatchTimeout bounds each Dispatch call through its context.
func WithDispatchTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// New creates a Scheduler checking store every interval.
func New(store *reminder.Store, dispatcher Dispatcher, interval time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		interval:   interval,
		clock:      clock.New(),
		logger:     log.Default(),
		notifyCh:   make(chan struct{}, 1),
		timeout:    DefaultDispatchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify triggers an immediate check. Non-blocking if a check is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// Run blocks and checks once immediately and then on every tick.
// It exits when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 || s.interval > time.Minute {
		return fmt.Errorf("scheduler interval must be within (0, 1m], got %s", s.interval)
	}

	s.logger.Info("started", "interval", s.interval)

	s.Check(ctx)

	ticker := s.clock.Ticker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down")
			s.drain()
			return nil
		case <-ticker.C:
			s.Check(ctx)
		case <-s.notifyCh:
			s.Check(ctx)
		}
	}
}

// window returns the minute range (from, to] this pass is responsible for.
// The current minute is always included. Minutes missed by a late tick are
// covered too; a longer gap (suspend, clock jump) is not caught up.
func (s *Scheduler) window(now time.Time) (time.Time, time.Time) {
	to := now.Truncate(time.Minute)
	from := to.Add(-time.Minute)

	s.mu.Lock()
	defer s.mu.Unlock()

	maxGap := 2*s.interval + time.Minute
	if last := s.lastChecked; !last.IsZero() && last.Before(from) && to.Sub(last) <= maxGap {
		from = last
	}
	s.lastChecked = to
	return from, to
}

// Check runs one due-check pass and returns the reminders that fired.
// The store is updated before this returns; notifications and actions run
// in the background so a slow notifier never delays the next pass.
// Failures are logged; nothing here stops the loop.
func (s *Scheduler) Check(ctx context.Context) []reminder.Reminder {
	if changed, err := s.store.Reload(); err != nil {
		s.logger.Warn("failed to reload reminders", "err", err)
	} else if changed {
		s.logger.Debug("reminders changed on disk, reloaded")
	}

	from, to := s.window(s.clock.Now())

	res, err := s.store.Fire(from, to)
	if err != nil {
		s.logger.Error("failed to save reminders", "err", err)
	}
	for _, i := range res.Skipped {
		s.logger.Warn("skipping malformed reminder", "position", i+1)
	}

	if len(res.Fired) > 0 {
		fired := res.Fired
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.dispatch(ctx, fired)
		}()
	}

	if len(res.Fired) > 0 && s.observer != nil {
		s.observer(res.Fired)
	}
	return res.Fired
}

// dispatch runs the fired reminders of one pass in order. The records are
// already removed or advanced, so shutdown does not cancel their actions;
// only the timeout does.
func (s *Scheduler) dispatch(ctx context.Context, fired []reminder.Reminder) {
	ctx = context.WithoutCancel(ctx)
	for _, r := range fired {
		s.logger.Info("reminder fired", "time", r.Time, "message", r.Message, "repeat", r.Repeat)

		dctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.dispatcher.Dispatch(dctx, r)
		cancel()
		if err != nil {
			s.logger.Warn("reminder action incomplete", "message", r.Message, "err", err)
		}
	}
}

// Wait blocks until the actions of every pass so far have finished.
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}

// drain waits for in-flight actions, at most one dispatch timeout.
func (s *Scheduler) drain() {
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.timeout):
		s.logger.Warn("gave up waiting for reminder actions")
	}
}
