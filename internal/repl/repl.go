// Package repl is the interactive terminal front end: a readline prompt
// with a field-by-field form for creating and editing reminders.
package repl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/notexe/remindme/internal/config"
	"github.com/notexe/remindme/internal/reminder"
	"github.com/notexe/remindme/internal/ui"
)

// errCancelled is returned when the user aborts a form with Ctrl+C.
var errCancelled = errors.New("cancelled")

// Checker requests an immediate due check.
type Checker interface {
	Notify()
}

type REPL struct {
	store     *reminder.Store
	checker   Checker
	config    *config.Config
	rl        *readline.Instance
	formatter *ui.Formatter
}

func NewREPL(store *reminder.Store, checker Checker, cfg *config.Config) (*REPL, error) {
	formatter := ui.NewFormatter(cfg.UI.ColoredOutput)

	rl, err := setupReadline(formatter.FormatPrompt())
	if err != nil {
		return nil, fmt.Errorf("failed to setup readline: %w", err)
	}

	return &REPL{
		store:     store,
		checker:   checker,
		config:    cfg,
		rl:        rl,
		formatter: formatter,
	}, nil
}

func (r *REPL) Start(ctx context.Context) error {
	defer r.rl.Close()

	r.displayWelcome()

	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := r.readInput()
		if err != nil {
			if isEOF(err) {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		if input == "" {
			continue
		}

		isCommand, command, args := r.parseCommand(input)
		if !isCommand {
			r.displayInfo("Commands start with /. Type /help for the list.")
			continue
		}

		if err := r.handleCommand(command, args); err != nil {
			if errors.Is(err, errCancelled) {
				r.displaySystem("Cancelled.")
			} else {
				r.displayError(err)
			}
		}

		if command == "/quit" || command == "/exit" || command == "/q" {
			return nil
		}
	}
}

func (r *REPL) Stop() {
	r.rl.Close()
}

// Fired is the scheduler observer: it prints fired reminders and the
// refreshed list above the prompt.
func (r *REPL) Fired(fired []reminder.Reminder) {
	w := r.rl.Stdout()
	fmt.Fprintln(w)
	for _, rem := range fired {
		fmt.Fprintln(w, r.formatter.FormatFired(rem))
	}
	fmt.Fprintln(w, r.formatter.FormatList(r.store.List()))
	fmt.Fprintln(w)
}

func (r *REPL) handleCommand(command, args string) error {
	switch command {
	case "/help", "/h":
		r.displayHelp()
		return nil

	case "/list", "/l":
		r.displayList()
		return nil

	case "/add", "/a":
		return r.handleAdd()

	case "/edit", "/e":
		return r.handleEdit(args)

	case "/delete", "/d", "/rm":
		return r.handleDelete(args)

	case "/check":
		r.checker.Notify()
		r.displaySystem("Checking for due reminders...")
		return nil

	case "/quit", "/exit", "/q":
		fmt.Println("\nGoodbye!")
		return nil

	default:
		return fmt.Errorf("unknown command: %s (type /help for available commands)", command)
	}
}

func (r *REPL) handleAdd() error {
	rem, err := r.runForm(reminder.Reminder{Kind: reminder.ActionURL, Repeat: reminder.RepeatNone})
	if err != nil {
		return err
	}

	added, err := r.store.Add(rem)
	if err != nil {
		return err
	}

	r.displaySuccess(fmt.Sprintf("Reminder saved: %s", added.Summary()))
	r.checker.Notify()
	return nil
}

func (r *REPL) handleEdit(args string) error {
	idx, err := parsePosition(args, "/edit")
	if err != nil {
		return err
	}

	current, err := r.lookup(idx)
	if err != nil {
		return err
	}

	r.displaySystem("Press Enter to keep the value in brackets.")
	rem, err := r.runForm(current)
	if err != nil {
		return err
	}

	updated, err := r.store.Update(idx, current, rem)
	if err != nil {
		return changedHint(err)
	}

	r.displaySuccess(fmt.Sprintf("Reminder %d updated: %s", idx+1, updated.Summary()))
	r.checker.Notify()
	return nil
}

func (r *REPL) handleDelete(args string) error {
	idx, err := parsePosition(args, "/delete")
	if err != nil {
		return err
	}

	current, err := r.lookup(idx)
	if err != nil {
		return err
	}

	answer, err := r.readField(fmt.Sprintf("Delete \"%s\"? [y/N]: ", current.Summary()))
	if err != nil {
		return err
	}
	if a := strings.ToLower(answer); a != "y" && a != "yes" {
		r.displaySystem("Kept.")
		return nil
	}

	removed, err := r.store.Delete(idx, current)
	if err != nil {
		return changedHint(err)
	}

	r.displaySuccess(fmt.Sprintf("Deleted: %s", removed.Summary()))
	return nil
}

// lookup reads the reminder at idx after picking up external changes, so
// the prompt shows what is on disk now.
func (r *REPL) lookup(idx int) (reminder.Reminder, error) {
	if _, err := r.store.Reload(); err != nil {
		r.displayError(err)
	}
	return r.store.Get(idx)
}

func changedHint(err error) error {
	if errors.Is(err, reminder.ErrChanged) {
		return fmt.Errorf("%w; run /list and try again", err)
	}
	return err
}
