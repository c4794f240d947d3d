package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/notexe/remindme/internal/reminder"
)

var (
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")). // Coral red
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")) // Warm yellow

	SystemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("183")). // Soft purple
			Italic(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")). // Green
			Bold(true)

	AccentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("147")) // Light purple

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")). // Soft blue border
			Padding(0, 1)
)

type Formatter struct {
	colored bool
}

func NewFormatter(colored bool) *Formatter {
	return &Formatter{colored: colored}
}

func (f *Formatter) render(style lipgloss.Style, s string) string {
	if f.colored {
		return style.Render(s)
	}
	return s
}

func (f *Formatter) FormatError(err error) string {
	return f.render(ErrorStyle, "Error: ") + err.Error()
}

func (f *Formatter) FormatInfo(info string) string {
	return f.render(InfoStyle, info)
}

func (f *Formatter) FormatSystem(msg string) string {
	return f.render(SystemStyle, msg)
}

func (f *Formatter) FormatSuccess(msg string) string {
	return f.render(SuccessStyle, "✓ ") + msg
}

func (f *Formatter) FormatWelcome(storePath string, count int) string {
	title := f.render(HeaderStyle, "Reminders")
	file := f.render(DimStyle, "File: ") + storePath
	total := f.render(DimStyle, "Scheduled: ") + f.render(AccentStyle, fmt.Sprintf("%d", count))
	help := f.render(DimStyle, "Type /help for commands")

	content := strings.Join([]string{title, file, total, "", help}, "\n")
	if f.colored {
		return "\n" + BoxStyle.Render(content) + "\n\n"
	}
	return "\n" + content + "\n\n"
}

// FormatList renders the numbered reminder list, e.g.
// "1. 2024-01-01 09:00 | standup  [url, daily]".
func (f *Formatter) FormatList(reminders []reminder.Reminder) string {
	if len(reminders) == 0 {
		return f.FormatInfo("No reminders scheduled.")
	}

	lines := make([]string, 0, len(reminders))
	for i, r := range reminders {
		num := f.render(AccentStyle, fmt.Sprintf("%d.", i+1))
		meta := f.render(DimStyle, fmt.Sprintf("[%s, %s] %s", r.Kind, r.Repeat, r.Value))
		lines = append(lines, fmt.Sprintf("%s %s  %s", num, r.Summary(), meta))
	}
	return strings.Join(lines, "\n")
}

// FormatFired renders the notice shown when a reminder goes off.
func (f *Formatter) FormatFired(r reminder.Reminder) string {
	bell := f.render(HeaderStyle, "⏰ "+r.Message)
	action := "opening " + r.Value
	if r.Kind == reminder.ActionProgram {
		action = "launching " + r.Value
	}
	next := ""
	if r.Recurring() {
		next = ", repeats " + string(r.Repeat)
	}
	return bell + " " + f.render(DimStyle, "("+action+next+")")
}

// FormatField renders a form prompt with its current/default value.
func (f *Formatter) FormatField(label, current string) string {
	if current == "" {
		return f.render(AccentStyle, label) + ": "
	}
	return f.render(AccentStyle, label) + f.render(DimStyle, " ["+current+"]") + ": "
}

func (f *Formatter) FormatPrompt() string {
	if f.colored {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render("remind") +
			lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true).Render(" > ")
	}
	return "remind > "
}
