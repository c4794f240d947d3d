package repl

import (
	"testing"

	"github.com/notexe/remindme/internal/reminder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReminderNew(t *testing.T) {
	base := reminder.Reminder{Kind: reminder.ActionURL, Repeat: reminder.RepeatNone}

	r, err := buildReminder(base, formInput{
		Time:    "2024-01-01 09:00",
		Message: "standup",
		Value:   "https://example.com",
		Repeat:  "daily",
	})
	require.NoError(t, err)
	assert.Equal(t, reminder.Reminder{
		Time:    "2024-01-01 09:00",
		Kind:    reminder.ActionURL,
		Value:   "https://example.com",
		Message: "standup",
		Repeat:  reminder.RepeatDaily,
	}, r)
}

func TestBuildReminderKeepsBlankFields(t *testing.T) {
	base := reminder.Reminder{
		Time: "2024-01-01 09:00", Kind: reminder.ActionURL,
		Value: "https://example.com", Message: "standup", Repeat: reminder.RepeatWeekly,
	}

	r, err := buildReminder(base, formInput{Kind: "program", Value: "/usr/bin/zoom"})
	require.NoError(t, err)
	assert.Equal(t, reminder.ActionProgram, r.Kind)
	assert.Equal(t, "/usr/bin/zoom", r.Value)
	assert.Equal(t, "standup", r.Message)
	assert.Equal(t, reminder.RepeatWeekly, r.Repeat)
}

func TestBuildReminderRejects(t *testing.T) {
	base := reminder.Reminder{Kind: reminder.ActionURL, Repeat: reminder.RepeatNone}
	full := formInput{Time: "2024-01-01 09:00", Message: "m", Value: "https://x"}

	cases := map[string]formInput{
		"bad time":      {Time: "2024-13-01 09:00", Message: "m", Value: "https://x"},
		"missing field": {Time: "2024-01-01 09:00", Message: "m"},
		"bad action":    {Time: full.Time, Message: full.Message, Value: full.Value, Kind: "email"},
		"bad repeat":    {Time: full.Time, Message: full.Message, Value: full.Value, Repeat: "hourly"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := buildReminder(base, in)
			assert.ErrorIs(t, err, reminder.ErrInvalid)
		})
	}
}

func TestParsePosition(t *testing.T) {
	idx, err := parsePosition("3", "/edit")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	idx, err = parsePosition("1.", "/delete")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	for _, bad := range []string{"", "0", "-2", "two"} {
		_, err := parsePosition(bad, "/edit")
		assert.Error(t, err, bad)
	}
}

func TestParseCommand(t *testing.T) {
	r := &REPL{}

	isCmd, cmd, args := r.parseCommand("/Edit  2 ")
	assert.True(t, isCmd)
	assert.Equal(t, "/edit", cmd)
	assert.Equal(t, "2", args)

	isCmd, _, _ = r.parseCommand("hello")
	assert.False(t, isCmd)
}

func TestRenderHelpPlain(t *testing.T) {
	assert.Equal(t, helpMarkdown, renderHelp(false))
	assert.Contains(t, renderHelp(true), "/delete")
}

func TestBuildReminderCanonicalTime(t *testing.T) {
	base := reminder.Reminder{Kind: reminder.ActionURL, Repeat: reminder.RepeatNone}

	r, err := buildReminder(base, formInput{Time: "2030-01-01 9:00", Message: "m", Value: "https://x"})
	require.NoError(t, err)
	assert.Equal(t, "2030-01-01 09:00", r.Time)
}
