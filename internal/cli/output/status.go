package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/yndnr/remotectl/internal/cli/connection"
)

var (
	colorOpen       = color.New(color.FgGreen, color.Bold)
	colorTransition = color.New(color.FgYellow)
	colorRejected   = color.New(color.FgRed, color.Bold)
	colorIdle       = color.New(color.Faint)
)

// SetColor forces color on or off, overriding terminal detection.
func SetColor(enabled bool) {
	color.NoColor = !enabled
}

// StatusText renders a status name in its color. A rejected Closed
// reads "rejected".
func StatusText(s connection.Snapshot) string {
	switch {
	case s.Status == connection.StatusOpen:
		return colorOpen.Sprint(s.Status.String())
	case s.Status == connection.StatusOpening, s.Status == connection.StatusClosing:
		return colorTransition.Sprint(s.Status.String())
	case s.Status == connection.StatusClosed && s.LastError != "":
		return colorRejected.Sprint("rejected")
	default:
		return colorIdle.Sprint(s.Status.String())
	}
}

// StatusLine renders one line describing the connection.
func StatusLine(s connection.Snapshot) string {
	switch {
	case s.Status == connection.StatusOpen:
		return fmt.Sprintf("%s %s", StatusText(s), s.Address)
	case s.LastError != "":
		return fmt.Sprintf("%s: %s", StatusText(s), s.LastError)
	default:
		return StatusText(s)
	}
}

// Prompt returns the REPL prompt for s.
func Prompt(s connection.Snapshot) string {
	return fmt.Sprintf("remotectl[%s]> ", StatusText(s))
}

// StatusTable is the table form of a snapshot.
func StatusTable(s connection.Snapshot) *Table {
	t := NewTable("status", "address", "attempt", "error")
	status := s.Status.String()
	if s.Status == connection.StatusClosed && s.LastError != "" {
		status = "rejected"
	}
	t.AddRow(status, s.Address, s.Attempt, s.LastError)
	return t
}

// PrintStatus writes s in format.
func PrintStatus(w io.Writer, format Format, s connection.Snapshot) error {
	if format == FormatTable || format == "" {
		return StatusTable(s).Render(w, false)
	}
	return NewFormatter(format).Format(w, s)
}

// Success prints a green check line.
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

// Failure prints a red cross line.
func Failure(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.RedString("✗"), fmt.Sprintf(format, args...))
}
