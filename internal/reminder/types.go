package reminder

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the on-disk and user-facing layout of a reminder time.
const TimeLayout = "2006-01-02 15:04"

// ActionKind selects what happens when a reminder fires.
type ActionKind string

const (
	ActionURL     ActionKind = "url"
	ActionProgram ActionKind = "program"
)

// Repeat is the recurrence policy applied after a reminder fires.
type Repeat string

const (
	RepeatNone   Repeat = "none"
	RepeatDaily  Repeat = "daily"
	RepeatWeekly Repeat = "weekly"
)

var (
	ErrInvalid  = errors.New("invalid reminder")
	ErrNotFound = errors.New("reminder not found")
	ErrChanged  = errors.New("reminder changed since it was read")
)

// Labels written by the older desktop build.
var legacyRepeat = map[string]Repeat{
	"":           RepeatNone,
	"одноразове": RepeatNone,
	"щодня":      RepeatDaily,
	"щотижня":    RepeatWeekly,
	"once":       RepeatNone,
}

// ParseRepeat accepts the canonical names and the legacy labels.
func ParseRepeat(s string) (Repeat, error) {
	s = strings.TrimSpace(s)
	switch r := Repeat(strings.ToLower(s)); r {
	case RepeatNone, RepeatDaily, RepeatWeekly:
		return r, nil
	}
	if r, ok := legacyRepeat[s]; ok {
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown repeat %q (use none, daily or weekly)", ErrInvalid, s)
}

// UnmarshalJSON also accepts a boolean (true = daily) from the clock-time variant.
// An unknown label is kept as written; Validate rejects it and the due check
// skips that record.
func (r *Repeat) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*r = RepeatDaily
		} else {
			*r = RepeatNone
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("repeat must be a string or boolean: %w", err)
	}
	parsed, err := ParseRepeat(s)
	if err != nil {
		*r = Repeat(s)
		return nil
	}
	*r = parsed
	return nil
}

// ParseActionKind accepts "url"/"link" and "program"/"app".
func ParseActionKind(s string) (ActionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "url", "link":
		return ActionURL, nil
	case "program", "app":
		return ActionProgram, nil
	}
	return "", fmt.Errorf("%w: unknown action %q (use url or program)", ErrInvalid, s)
}

// Reminder is a scheduled notification plus action.
type Reminder struct {
	Time    string     `json:"time"`
	Kind    ActionKind `json:"type"`
	Value   string     `json:"value"`
	Message string     `json:"message"`
	Repeat  Repeat     `json:"repeat"`
}

// ParseTime parses s in TimeLayout as local wall-clock time.
func ParseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time must look like YYYY-MM-DD HH:MM", ErrInvalid)
	}
	return t, nil
}

// FormatTime renders t at minute resolution.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// Scheduled returns the parsed scheduled time.
func (r Reminder) Scheduled() (time.Time, error) {
	return ParseTime(r.Time)
}

// Validate checks the record the same way user input is checked.
func (r Reminder) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalid)
	}
	if strings.TrimSpace(r.Value) == "" {
		return fmt.Errorf("%w: link or program is required", ErrInvalid)
	}
	if _, err := ParseTime(r.Time); err != nil {
		return err
	}
	switch r.Kind {
	case ActionURL, ActionProgram:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalid, r.Kind)
	}
	switch r.Repeat {
	case RepeatNone, RepeatDaily, RepeatWeekly:
	default:
		return fmt.Errorf("%w: unknown repeat %q", ErrInvalid, r.Repeat)
	}
	return nil
}

// Normalize trims fields, fills defaults and rewrites a parseable time in
// TimeLayout ("9:00" becomes "09:00").
func (r Reminder) Normalize() Reminder {
	r.Time = strings.TrimSpace(r.Time)
	if t, err := ParseTime(r.Time); err == nil {
		r.Time = FormatTime(t)
	}
	r.Value = strings.TrimSpace(r.Value)
	r.Message = strings.TrimSpace(r.Message)
	if r.Kind == "" {
		r.Kind = ActionURL
	}
	if r.Repeat == "" {
		r.Repeat = RepeatNone
	}
	return r
}

// Recurring reports whether the reminder survives firing.
func (r Reminder) Recurring() bool {
	return r.Repeat == RepeatDaily || r.Repeat == RepeatWeekly
}

// Next returns the reminder advanced by its repeat interval.
// Calendar arithmetic keeps the wall-clock time across DST changes.
func (r Reminder) Next() (Reminder, error) {
	t, err := r.Scheduled()
	if err != nil {
		return r, err
	}
	switch r.Repeat {
	case RepeatDaily:
		t = t.AddDate(0, 0, 1)
	case RepeatWeekly:
		t = t.AddDate(0, 0, 7)
	default:
		return r, fmt.Errorf("%w: reminder does not repeat", ErrInvalid)
	}
	r.Time = FormatTime(t)
	return r, nil
}

// Summary is the one-line list rendering, e.g. "2024-01-01 09:00 | standup".
func (r Reminder) Summary() string {
	return r.Time + " | " + r.Message
}
