package repl

import (
	"github.com/notexe/remindme/internal/reminder"
)

// formInput holds raw answers; an empty answer keeps the base value.
type formInput struct {
	Time    string
	Message string
	Value   string
	Kind    string
	Repeat  string
}

// buildReminder applies the answers on top of base and validates the result.
// Nothing is stored when it returns an error.
func buildReminder(base reminder.Reminder, in formInput) (reminder.Reminder, error) {
	r := base
	if in.Time != "" {
		t, err := reminder.ParseTime(in.Time)
		if err != nil {
			return reminder.Reminder{}, err
		}
		r.Time = reminder.FormatTime(t)
	}
	if in.Message != "" {
		r.Message = in.Message
	}
	if in.Value != "" {
		r.Value = in.Value
	}
	if in.Kind != "" {
		kind, err := reminder.ParseActionKind(in.Kind)
		if err != nil {
			return reminder.Reminder{}, err
		}
		r.Kind = kind
	}
	if in.Repeat != "" {
		repeat, err := reminder.ParseRepeat(in.Repeat)
		if err != nil {
			return reminder.Reminder{}, err
		}
		r.Repeat = repeat
	}

	r = r.Normalize()
	if err := r.Validate(); err != nil {
		return reminder.Reminder{}, err
	}
	return r, nil
}

// runForm asks for every field, showing base values as defaults.
func (r *REPL) runForm(base reminder.Reminder) (reminder.Reminder, error) {
	var in formInput
	fields := []struct {
		label   string
		current string
		dst     *string
	}{
		{"Time (YYYY-MM-DD HH:MM)", base.Time, &in.Time},
		{"Message", base.Message, &in.Message},
		{"Link or program", base.Value, &in.Value},
		{"Action (url/program)", string(base.Kind), &in.Kind},
		{"Repeat (none/daily/weekly)", string(base.Repeat), &in.Repeat},
	}

	for _, f := range fields {
		v, err := r.readField(r.formatter.FormatField(f.label, f.current))
		if err != nil {
			return reminder.Reminder{}, err
		}
		*f.dst = v
	}

	return buildReminder(base, in)
}
