package reminder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Store holds the ordered reminder list and rewrites the JSON file after
// every mutation. It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	path      string
	reminders []Reminder
	modTime   time.Time
	size      int64
	logger    *log.Logger
}

// FireResult describes one due-check pass over the store.
type FireResult struct {
	Fired   []Reminder
	Skipped []int // positions of records that do not validate
}

// Open loads the store at path. A missing file yields an empty list; an
// unreadable one is moved aside to <path>.corrupt and also yields an empty list.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	s := &Store{path: path, logger: logger}
	if err := s.load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr) {
			return nil, err
		}
		logger.Warn("reminder file is corrupt, starting empty", "path", path, "err", err)
		if rerr := os.Rename(path, path+".corrupt"); rerr != nil {
			logger.Warn("failed to move corrupt file aside", "err", rerr)
		}
		s.reminders = nil
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return err
	}

	var reminders []Reminder
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &reminders); err != nil {
			return fmt.Errorf("failed to parse %s: %w", s.path, err)
		}
	}
	for i := range reminders {
		reminders[i] = reminders[i].Normalize()
	}

	s.reminders = reminders
	s.modTime = info.ModTime()
	s.size = info.Size()
	return nil
}

// save writes the whole list through a temp file so readers never see a
// partial document. Caller holds s.mu.
func (s *Store) save() error {
	list := s.reminders
	if list == nil {
		list = []Reminder{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(list); err != nil {
		return fmt.Errorf("failed to marshal reminders: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".reminders-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("failed to write reminders: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write reminders: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace reminder file: %w", err)
	}

	if info, err := os.Stat(s.path); err == nil {
		s.modTime = info.ModTime()
		s.size = info.Size()
	}
	return nil
}

// Reload re-reads the file if another process changed it since the last
// read or write. It reports whether the in-memory list was replaced.
func (s *Store) Reload() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload()
}

// reload is Reload without locking. Caller holds s.mu.
func (s *Store) reload() (bool, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat reminder file: %w", err)
	}
	if info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return false, nil
	}

	prev := s.reminders
	if err := s.load(); err != nil {
		s.reminders = prev
		s.modTime = info.ModTime()
		s.size = info.Size()
		return false, err
	}
	return true, nil
}

// refresh picks up writes from other processes before a mutation so they
// are not overwritten. An unreadable file is replaced by the next save.
// Caller holds s.mu.
func (s *Store) refresh() {
	if _, err := s.reload(); err != nil {
		s.logger.Warn("failed to reload reminders before write", "err", err)
	}
}

// List returns a copy of the reminders in order.
func (s *Store) List() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.reminders)
}

// Len returns the number of stored reminders.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reminders)
}

// Get returns the reminder at index i (0-based).
func (s *Store) Get(i int) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.reminders) {
		return Reminder{}, fmt.Errorf("%w: no reminder at position %d", ErrNotFound, i+1)
	}
	return s.reminders[i], nil
}

// Add validates r, appends it and persists the list.
func (s *Store) Add(r Reminder) (Reminder, error) {
	r = r.Normalize()
	if err := r.Validate(); err != nil {
		return Reminder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	s.reminders = append(s.reminders, r)
	if err := s.save(); err != nil {
		s.reminders = s.reminders[:len(s.reminders)-1]
		return Reminder{}, err
	}
	return r, nil
}

// Update replaces the reminder at index i and persists the list. expected is
// the record the caller read at i; if the list changed since (a reminder
// fired, another process edited the file) ErrChanged is returned and nothing
// is written.
func (s *Store) Update(i int, expected, r Reminder) (Reminder, error) {
	r = r.Normalize()
	if err := r.Validate(); err != nil {
		return Reminder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	if err := s.check(i, expected); err != nil {
		return Reminder{}, err
	}
	prev := s.reminders[i]
	s.reminders[i] = r
	if err := s.save(); err != nil {
		s.reminders[i] = prev
		return Reminder{}, err
	}
	return r, nil
}

// Delete removes the reminder at index i, keeping the order of the rest.
// expected has the same meaning as for Update.
func (s *Store) Delete(i int, expected Reminder) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	if err := s.check(i, expected); err != nil {
		return Reminder{}, err
	}
	prev := slices.Clone(s.reminders)
	removed := s.reminders[i]
	s.reminders = slices.Delete(s.reminders, i, i+1)
	if err := s.save(); err != nil {
		s.reminders = prev
		return Reminder{}, err
	}
	return removed, nil
}

// check verifies index i still holds expected. Caller holds s.mu.
func (s *Store) check(i int, expected Reminder) error {
	if i < 0 || i >= len(s.reminders) {
		return fmt.Errorf("%w: no reminder at position %d", ErrNotFound, i+1)
	}
	if s.reminders[i] != expected {
		return fmt.Errorf("%w: position %d now holds %q", ErrChanged, i+1, s.reminders[i].Summary())
	}
	return nil
}

// Due returns the reminders scheduled at or before now without changing them.
func (s *Store) Due(now time.Time) []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Reminder
	for _, r := range s.reminders {
		t, err := r.Scheduled()
		if err != nil {
			continue
		}
		if !t.After(now) {
			due = append(due, r)
		}
	}
	return due
}

// Fire collects the reminders whose minute lies in (from, to], removes the
// one-time ones and advances the repeating ones, then persists the list.
// Fired holds the records as they were before rescheduling. Records that do
// not validate (bad time, unknown repeat or action) are left alone and
// reported in Skipped.
func (s *Store) Fire(from, to time.Time) (FireResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	var res FireResult
	kept := make([]Reminder, 0, len(s.reminders))
	for i, r := range s.reminders {
		if err := r.Validate(); err != nil {
			res.Skipped = append(res.Skipped, i)
			kept = append(kept, r)
			continue
		}
		t, _ := r.Scheduled()
		if !t.After(from) || t.After(to) {
			kept = append(kept, r)
			continue
		}

		res.Fired = append(res.Fired, r)
		if !r.Recurring() {
			continue
		}
		next, err := r.Next()
		if err != nil {
			kept = append(kept, r)
			continue
		}
		kept = append(kept, next)
	}

	if len(res.Fired) == 0 {
		return res, nil
	}

	// The in-memory list keeps the rescheduled state even if the write fails
	// so the same minute is never fired twice.
	s.reminders = kept
	if err := s.save(); err != nil {
		s.logger.Error("failed to persist after firing", "err", err)
		return res, err
	}
	return res, nil
}
