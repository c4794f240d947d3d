// Package dispatch performs the side effects of a fired reminder: a
// notification followed by opening a link or launching a program.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/notexe/remindme/internal/reminder"
)

// Notifier shows a notification to the user.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// Launcher performs the reminder action on the host.
type Launcher interface {
	OpenURL(url string) error
	Start(path string) error
}

// Notifiers fans a notification out to every notifier.
type Notifiers []Notifier

func (n Notifiers) Notify(ctx context.Context, title, message string) error {
	var errs []error
	for _, notifier := range n {
		if err := notifier.Notify(ctx, title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatcher runs the notification and action for fired reminders.
type Dispatcher struct {
	notifier Notifier
	launcher Launcher
	title    string
	logger   *log.Logger
}

// New creates a Dispatcher. title is used for every notification.
func New(notifier Notifier, launcher Launcher, title string, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		notifier: notifier,
		launcher: launcher,
		title:    title,
		logger:   logger,
	}
}

// Dispatch notifies and then performs the action. A failure in one step
// does not prevent the other; both are logged and returned joined.
func (d *Dispatcher) Dispatch(ctx context.Context, r reminder.Reminder) error {
	var errs []error

	if d.notifier != nil {
		if err := d.notifier.Notify(ctx, d.title, r.Message); err != nil {
			d.logger.Warn("notification failed", "message", r.Message, "err", err)
			errs = append(errs, fmt.Errorf("notify: %w", err))
		}
	}

	switch r.Kind {
	case reminder.ActionURL:
		if err := d.launcher.OpenURL(r.Value); err != nil {
			d.logger.Error("failed to open link", "url", r.Value, "err", err)
			errs = append(errs, fmt.Errorf("open %s: %w", r.Value, err))
		}
	case reminder.ActionProgram:
		if err := d.launcher.Start(r.Value); err != nil {
			d.logger.Error("failed to launch program", "path", r.Value, "err", err)
			errs = append(errs, fmt.Errorf("launch %s: %w", r.Value, err))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown action %q", r.Kind))
	}

	return errors.Join(errs...)
}
