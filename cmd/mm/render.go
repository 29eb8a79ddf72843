package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/zulandar/minutes/internal/models"
	"golang.org/x/term"
)

const defaultWidth = 80

// nowFunc is replaced in tests.
var nowFunc = time.Now

var statusStyles = map[string]lipgloss.Style{
	models.StatusOpen:       lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true),
	models.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	models.StatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	models.StatusCancelled:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
}

// isTerminal reports whether w is a terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termWidth returns the width of w when it is a terminal.
func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultWidth
}

// renderMarkdown renders md for w. Output that is not a terminal gets the
// markdown source.
func renderMarkdown(w io.Writer, md string) string {
	if !isTerminal(w) {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(termWidth(w)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// styleStatus colors a task status on terminals.
func styleStatus(w io.Writer, status string) string {
	style, ok := statusStyles[status]
	if !ok || !isTerminal(w) {
		return status
	}
	return style.Render(status)
}

// wrapIndented word-wraps s to the output width and indents every line.
func wrapIndented(w io.Writer, s string, indent int) string {
	width := termWidth(w) - indent
	if width < 20 {
		width = 20
	}
	prefix := strings.Repeat(" ", indent)
	lines := strings.Split(wordwrap.String(s, width), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatDue formats an optional date, "-" when unset.
func formatDue(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
