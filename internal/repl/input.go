package repl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

func (r *REPL) readInput() (string, error) {
	line, err := r.rl.Readline()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

// readField prompts for a single value. Ctrl+C aborts with errCancelled.
func (r *REPL) readField(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	defer r.rl.SetPrompt(r.formatter.FormatPrompt())

	line, err := r.rl.Readline()
	if err != nil {
		if isEOF(err) {
			return "", errCancelled
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (r *REPL) parseCommand(input string) (bool, string, string) {
	if !strings.HasPrefix(input, "/") {
		return false, "", ""
	}

	parts := strings.SplitN(input, " ", 2)
	command := strings.ToLower(parts[0])

	args := ""
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	return true, command, args
}

// parsePosition turns a 1-based list position into a store index.
func parsePosition(args, command string) (int, error) {
	if args == "" {
		return 0, fmt.Errorf("usage: %s <number>", command)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(args, "."))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%q is not a list number", args)
	}
	return n - 1, nil
}

func setupReadline(prompt string) (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:              prompt,
		HistoryFile:         "",
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})

	return rl, err
}

func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func isEOF(err error) bool {
	return err == io.EOF || err == readline.ErrInterrupt
}
