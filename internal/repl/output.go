package repl

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# Commands

| Command | Description |
|---|---|
| ` + "`/add`" + ` | Schedule a new reminder |
| ` + "`/edit <n>`" + ` | Change reminder *n* |
| ` + "`/delete <n>`" + ` | Remove reminder *n* |
| ` + "`/list`" + ` | Show all reminders |
| ` + "`/check`" + ` | Check for due reminders now |
| ` + "`/quit`" + ` | Exit |

Times use ` + "`YYYY-MM-DD HH:MM`" + ` in local time. A **url** reminder opens the
link in your browser, a **program** reminder launches the file at that path.
Daily and weekly reminders move forward after they fire; one-time reminders
are removed. Ctrl+C cancels a form.
`

func (r *REPL) displayError(err error) {
	fmt.Println(r.formatter.FormatError(err))
	fmt.Println()
}

func (r *REPL) displayWelcome() {
	fmt.Print(r.formatter.FormatWelcome(r.store.Path(), r.store.Len()))
}

func (r *REPL) displayHelp() {
	fmt.Println(renderHelp(r.config.UI.ColoredOutput))
}

func (r *REPL) displayList() {
	fmt.Println(r.formatter.FormatList(r.store.List()))
	fmt.Println()
}

func (r *REPL) displayInfo(msg string) {
	fmt.Println(r.formatter.FormatInfo(msg))
	fmt.Println()
}

func (r *REPL) displaySystem(msg string) {
	fmt.Println(r.formatter.FormatSystem(msg))
	fmt.Println()
}

func (r *REPL) displaySuccess(msg string) {
	fmt.Println(r.formatter.FormatSuccess(msg))
	fmt.Println()
	os.Stdout.Sync() //nolint:errcheck
}

// renderHelp renders the help text with glamour, or returns it raw when
// colors are off or rendering fails.
func renderHelp(colored bool) string {
	if !colored {
		return helpMarkdown
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return helpMarkdown
	}

	rendered, err := renderer.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return rendered
}
