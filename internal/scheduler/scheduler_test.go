package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"
	"github.com/notexe/remindme/internal/reminder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []reminder.Reminder
	fail  map[string]error
	block chan struct{} // when set, Dispatch waits for it or for ctx
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, r reminder.Reminder) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r)
	return f.fail[r.Message]
}

func (f *fakeDispatcher) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.calls {
		out = append(out, r.Message)
	}
	return out
}

type fixture struct {
	store *reminder.Store
	disp  *fakeDispatcher
	clock *clock.Mock
	sched *Scheduler
}

func newFixture(t *testing.T, reminders ...reminder.Reminder) *fixture {
	t.Helper()
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})

	store, err := reminder.Open(filepath.Join(t.TempDir(), "reminders.json"), logger)
	require.NoError(t, err)
	for _, r := range reminders {
		_, err := store.Add(r)
		require.NoError(t, err)
	}

	f := &fixture{
		store: store,
		disp:  &fakeDispatcher{fail: map[string]error{}},
		clock: clock.NewMock(),
	}
	f.sched = New(store, f.disp, 30*time.Second, WithClock(f.clock), WithLogger(logger))
	return f
}

func (f *fixture) at(t *testing.T, s string, offset time.Duration) {
	t.Helper()
	tm, err := reminder.ParseTime(s)
	require.NoError(t, err)
	f.clock.Set(tm.Add(offset))
}

func rem(msg, at string, repeat reminder.Repeat) reminder.Reminder {
	return reminder.Reminder{
		Time:    at,
		Kind:    reminder.ActionURL,
		Value:   "https://example.com",
		Message: msg,
		Repeat:  repeat,
	}
}

func TestOneTimeReminderFiresOnceAndIsRemoved(t *testing.T) {
	f := newFixture(t, rem("standup", "2024-01-01 09:00", reminder.RepeatNone))
	ctx := context.Background()

	f.at(t, "2024-01-01 08:59", 40*time.Second)
	assert.Empty(t, f.sched.Check(ctx))

	f.at(t, "2024-01-01 09:00", 10*time.Second)
	fired := f.sched.Check(ctx)
	require.Len(t, fired, 1)
	assert.Equal(t, rem("standup", "2024-01-01 09:00", reminder.RepeatNone), fired[0])

	f.at(t, "2024-01-01 09:00", 40*time.Second)
	assert.Empty(t, f.sched.Check(ctx))

	f.sched.Wait()
	assert.Equal(t, []string{"standup"}, f.disp.messages())
	assert.Equal(t, 0, f.store.Len())

	data, err := os.ReadFile(f.store.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data), "removal is persisted")
}

func TestRepeatingRemindersAdvance(t *testing.T) {
	f := newFixture(t,
		rem("daily", "2024-01-01 09:00", reminder.RepeatDaily),
		rem("weekly", "2024-01-01 09:00", reminder.RepeatWeekly),
	)
	f.at(t, "2024-01-01 09:00", 0)

	fired := f.sched.Check(context.Background())
	require.Len(t, fired, 2)

	list := f.store.List()
	require.Len(t, list, 2)
	assert.Equal(t, rem("daily", "2024-01-02 09:00", reminder.RepeatDaily), list[0])
	assert.Equal(t, rem("weekly", "2024-01-08 09:00", reminder.RepeatWeekly), list[1])
}

func TestDailyReminderFiresNextDay(t *testing.T) {
	f := newFixture(t, rem("pills", "2024-01-01 21:00", reminder.RepeatDaily))
	ctx := context.Background()

	f.at(t, "2024-01-01 21:00", 5*time.Second)
	require.Len(t, f.sched.Check(ctx), 1)

	f.at(t, "2024-01-02 21:00", 5*time.Second)
	require.Len(t, f.sched.Check(ctx), 1)

	f.sched.Wait()
	assert.Equal(t, []string{"pills", "pills"}, f.disp.messages())
	list := f.store.List()
	require.Len(t, list, 1)
	assert.Equal(t, "2024-01-03 21:00", list[0].Time)
}

func TestLateTickCoversSkippedMinute(t *testing.T) {
	f := newFixture(t, rem("late", "2024-01-01 09:01", reminder.RepeatNone))
	ctx := context.Background()

	f.at(t, "2024-01-01 09:00", 50*time.Second)
	assert.Empty(t, f.sched.Check(ctx))

	// Next pass lands after 09:01 has passed entirely.
	f.at(t, "2024-01-01 09:02", 5*time.Second)
	fired := f.sched.Check(ctx)
	require.Len(t, fired, 1)
	assert.Equal(t, "late", fired[0].Message)
}

func TestLongGapDoesNotCatchUp(t *testing.T) {
	f := newFixture(t, rem("missed", "2024-01-01 10:00", reminder.RepeatNone))
	ctx := context.Background()

	f.at(t, "2024-01-01 09:00", 0)
	f.sched.Check(ctx)

	f.at(t, "2024-01-01 12:00", 0)
	assert.Empty(t, f.sched.Check(ctx))
	assert.Equal(t, 1, f.store.Len())
}

func TestOverdueAtStartupIsNotFired(t *testing.T) {
	f := newFixture(t, rem("old", "2024-01-01 08:00", reminder.RepeatNone))

	f.at(t, "2024-01-01 09:00", 0)
	assert.Empty(t, f.sched.Check(context.Background()))
	f.sched.Wait()
	assert.Empty(t, f.disp.messages())
}

func TestDispatchFailureDoesNotStopOthers(t *testing.T) {
	f := newFixture(t,
		rem("broken", "2024-01-01 09:00", reminder.RepeatNone),
		rem("fine", "2024-01-01 09:00", reminder.RepeatDaily),
	)
	f.disp.fail["broken"] = errors.New("launch failed")
	f.at(t, "2024-01-01 09:00", 0)

	fired := f.sched.Check(context.Background())
	require.Len(t, fired, 2)
	f.sched.Wait()
	assert.Equal(t, []string{"broken", "fine"}, f.disp.messages())

	list := f.store.List()
	require.Len(t, list, 1, "the one-time reminder is removed even though its action failed")
	assert.Equal(t, "fine", list[0].Message)
}

func TestMalformedTimeIsSkipped(t *testing.T) {
	f := newFixture(t, rem("ok", "2024-01-01 09:00", reminder.RepeatNone))
	data := `[
  {"time": "someday", "type": "url", "value": "https://x", "message": "broken", "repeat": "none"},
  {"time": "2024-01-01 09:00", "type": "url", "value": "https://example.com", "message": "ok", "repeat": "none"}
]`
	require.NoError(t, os.WriteFile(f.store.Path(), []byte(data), 0o644))

	f.at(t, "2024-01-01 09:00", 0)
	fired := f.sched.Check(context.Background())
	require.Len(t, fired, 1)
	assert.Equal(t, "ok", fired[0].Message)

	list := f.store.List()
	require.Len(t, list, 1)
	assert.Equal(t, "broken", list[0].Message)
}

func TestObserverSeesFiredReminders(t *testing.T) {
	f := newFixture(t, rem("standup", "2024-01-01 09:00", reminder.RepeatNone))
	var seen []reminder.Reminder
	f.sched.observer = func(fired []reminder.Reminder) { seen = fired }

	f.at(t, "2024-01-01 08:00", 0)
	f.sched.Check(context.Background())
	assert.Nil(t, seen, "observer only runs when something fired")

	f.at(t, "2024-01-01 09:00", 0)
	f.sched.Check(context.Background())
	require.Len(t, seen, 1)
	assert.Equal(t, "standup", seen[0].Message)
}

func TestRunChecksImmediatelyAndStops(t *testing.T) {
	f := newFixture(t, rem("now", "2024-01-01 09:00", reminder.RepeatNone))
	f.at(t, "2024-01-01 09:00", 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.sched.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(f.disp.messages()) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunNotifyTriggersCheck(t *testing.T) {
	f := newFixture(t)
	f.at(t, "2024-01-01 09:00", 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.sched.Run(ctx) //nolint:errcheck

	// Let the initial pass run before the reminder exists.
	time.Sleep(50 * time.Millisecond)

	_, err := f.store.Add(rem("added", "2024-01-01 09:00", reminder.RepeatNone))
	require.NoError(t, err)
	f.sched.Notify()

	require.Eventually(t, func() bool {
		return len(f.disp.messages()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRunRejectsBadInterval(t *testing.T) {
	f := newFixture(t)
	for _, d := range []time.Duration{0, 2 * time.Minute} {
		s := New(f.store, f.disp, d, WithClock(f.clock))
		assert.Error(t, s.Run(context.Background()))
	}
}

func TestStandupExample(t *testing.T) {
	f := newFixture(t, reminder.Reminder{
		Time:    "2024-01-01 09:00",
		Message: "standup",
		Kind:    reminder.ActionURL,
		Value:   "https://example.com",
		Repeat:  reminder.RepeatNone,
	})
	f.at(t, "2024-01-01 09:00", 0)

	f.sched.Check(context.Background())
	f.sched.Wait()

	require.Len(t, f.disp.calls, 1)
	assert.Equal(t, "standup", f.disp.calls[0].Message)
	assert.Equal(t, "https://example.com", f.disp.calls[0].Value)
	assert.Equal(t, 0, f.store.Len())
}

func TestSlowDispatchDoesNotBlockCheck(t *testing.T) {
	f := newFixture(t, rem("slow", "2024-01-01 09:00", reminder.RepeatNone))
	f.disp.block = make(chan struct{})
	f.at(t, "2024-01-01 09:00", 0)

	returned := make(chan []reminder.Reminder, 1)
	go func() { returned <- f.sched.Check(context.Background()) }()

	select {
	case fired := <-returned:
		require.Len(t, fired, 1)
	case <-time.After(time.Second):
		t.Fatal("Check waited for the dispatcher")
	}
	assert.Equal(t, 0, f.store.Len(), "the store is updated before actions run")
	assert.Empty(t, f.disp.messages())

	close(f.disp.block)
	f.sched.Wait()
	assert.Equal(t, []string{"slow"}, f.disp.messages())
}

func TestDispatchTimeoutCancelsContext(t *testing.T) {
	f := newFixture(t, rem("hung", "2024-01-01 09:00", reminder.RepeatNone))
	f.disp.block = make(chan struct{})
	WithDispatchTimeout(20 * time.Millisecond)(f.sched)
	f.at(t, "2024-01-01 09:00", 0)

	f.sched.Check(context.Background())

	done := make(chan struct{})
	go func() {
		f.sched.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch was not bounded by the timeout")
	}
	assert.Empty(t, f.disp.messages())
}
