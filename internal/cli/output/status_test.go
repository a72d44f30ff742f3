package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/yndnr/remotectl/internal/cli/connection"
)

func TestStatusText(t *testing.T) {
	SetColor(false)

	tests := []struct {
		snap connection.Snapshot
		want string
	}{
		{connection.Snapshot{Status: connection.StatusIdle}, "idle"},
		{connection.Snapshot{Status: connection.StatusOpening}, "opening"},
		{connection.Snapshot{Status: connection.StatusOpen, Address: "ws://a"}, "open"},
		{connection.Snapshot{Status: connection.StatusClosing}, "closing"},
		{connection.Snapshot{Status: connection.StatusClosed}, "closed"},
		{connection.Snapshot{Status: connection.StatusClosed, LastError: "refused"}, "rejected"},
	}

	for _, tt := range tests {
		if got := StatusText(tt.snap); got != tt.want {
			t.Errorf("StatusText(%+v) = %q, want %q", tt.snap, got, tt.want)
		}
	}
}

func TestStatusLine(t *testing.T) {
	SetColor(false)

	if got := StatusLine(connection.Snapshot{Status: connection.StatusOpen, Address: "ws://a"}); got != "open ws://a" {
		t.Errorf("StatusLine(open) = %q", got)
	}
	got := StatusLine(connection.Snapshot{Status: connection.StatusClosed, LastError: "dial: refused"})
	if got != "rejected: dial: refused" {
		t.Errorf("StatusLine(rejected) = %q", got)
	}
}

func TestPrompt(t *testing.T) {
	SetColor(false)

	if got := Prompt(connection.Snapshot{Status: connection.StatusIdle}); got != "remotectl[idle]> " {
		t.Errorf("Prompt() = %q", got)
	}
}

func TestPrintStatus(t *testing.T) {
	snap := connection.Snapshot{Status: connection.StatusOpen, Address: "ws://a", Attempt: "01HX"}

	tests := []struct {
		format Format
		want   []string
	}{
		{FormatTable, []string{"STATUS", "open", "ws://a"}},
		{FormatJSON, []string{`"status": "open"`, `"address": "ws://a"`}},
		{FormatYAML, []string{"status: open", "address: ws://a"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := PrintStatus(&buf, tt.format, snap); err != nil {
				t.Fatalf("PrintStatus() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}
