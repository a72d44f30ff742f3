package repl

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/yndnr/remotectl/internal/cli/connection"
	"github.com/yndnr/remotectl/internal/cli/output"
)

func TestREPL_Run_Exit(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"exit command", "exit\n"},
		{"quit command", "quit\n"},
		{"EOF", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.input, nil)
			if err := f.repl.Run(context.Background()); err != nil {
				t.Errorf("Run() error = %v", err)
			}
		})
	}
}

func TestREPL_Run_Prompts(t *testing.T) {
	f := newFixture("\n\n\nexit\n", nil)

	if err := f.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if n := strings.Count(f.out.String(), "remotectl[idle]> "); n != 4 {
		t.Errorf("prompts = %d, want 4", n)
	}
}

func TestREPL_Run_PromptShowsStatus(t *testing.T) {
	f := newFixture("connect ws://tv.local\nexit\n", nil)

	if err := f.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := f.out.String()
	if !strings.Contains(out, "connecting to ws://tv.local") {
		t.Errorf("output missing connect message:\n%s", out)
	}
	if !strings.Contains(out, "remotectl[opening]> ") {
		t.Errorf("prompt should show opening:\n%s", out)
	}
}

func TestREPL_Run_Cancelled(t *testing.T) {
	f := newFixture("", nil)
	f.repl.input = blockingReader{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.repl.Run(ctx); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) { select {} }

func TestREPL_Run_ErrorsPrinted(t *testing.T) {
	f := newFixture("next\nbogus\nexit\n", nil)

	if err := f.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := f.out.String()
	if !strings.Contains(out, "Error: connection: not open (status idle)") {
		t.Errorf("output missing not-open error:\n%s", out)
	}
	if !strings.Contains(out, `Error: unknown command "bogus"`) {
		t.Errorf("output missing unknown command error:\n%s", out)
	}
}

func TestREPL_Run_History(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	f := newFixture("status\nstatus\nhelp\nexit\n", func(c *Config) {
		c.History = NewHistory(path, 10)
	})

	if err := f.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	h := NewHistory(path, 10)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"status", "help", "exit"}
	if got := h.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("saved history = %v, want %v", got, want)
	}
}

func TestREPL_Run_Notify(t *testing.T) {
	f := newFixture("", func(c *Config) { c.Notify = true })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	f.repl.input = blockingReader{}
	go func() { done <- f.repl.Run(ctx) }()

	waitWatchers(t, f)
	if err := f.mgr.Connect("ws://tv.local"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	f.tr.last().events.Errored(errors.New("refused"))

	waitOutput(t, f, "rejected:")
	cancel()
	<-done
}

func TestREPL_ConnectAndSend(t *testing.T) {
	f := newFixture("", nil)
	ctx := context.Background()

	if _, err := f.repl.Execute(ctx, "connect ws://tv.local"); err != nil {
		t.Fatalf("connect error = %v", err)
	}
	h := f.tr.last()
	h.events.Opened()

	for _, line := range []string{"next", "prev", "send volume up"} {
		if _, err := f.repl.Execute(ctx, line); err != nil {
			t.Fatalf("%s error = %v", line, err)
		}
	}

	want := []string{"next", "prev", "volume up"}
	if got := h.payloads(); !reflect.DeepEqual(got, want) {
		t.Errorf("payloads = %v, want %v", got, want)
	}
	if !strings.Contains(f.out.String(), "sent next") {
		t.Errorf("output missing send confirmation:\n%s", f.out.String())
	}
}

func TestREPL_Connect_DefaultAddress(t *testing.T) {
	f := newFixture("", func(c *Config) { c.Address = "ws://default" })

	if _, err := f.repl.Execute(context.Background(), "connect"); err != nil {
		t.Fatalf("connect error = %v", err)
	}
	f.tr.last().events.Opened()

	if got := f.mgr.Address(); got != "ws://default" {
		t.Errorf("Address() = %q, want ws://default", got)
	}
}

func TestREPL_Connect_NoAddress(t *testing.T) {
	f := newFixture("", nil)

	if _, err := f.repl.Execute(context.Background(), "connect"); !errors.Is(err, ErrNoAddress) {
		t.Errorf("connect error = %v, want ErrNoAddress", err)
	}
}

func TestREPL_Toggle(t *testing.T) {
	f := newFixture("", func(c *Config) { c.Address = "ws://tv.local" })
	ctx := context.Background()

	steps := []struct {
		before func()
		want   connection.Status
	}{
		{nil, connection.StatusOpening},
		{nil, connection.StatusClosing},
		{func() { f.tr.last().events.Closed() }, connection.StatusOpening},
		{func() { f.tr.last().events.Opened() }, connection.StatusClosing},
	}

	for i, step := range steps {
		if step.before != nil {
			step.before()
		}
		if _, err := f.repl.Execute(ctx, "toggle"); err != nil {
			t.Fatalf("step %d: toggle error = %v", i, err)
		}
		if got := f.mgr.Status(); got != step.want {
			t.Fatalf("step %d: status = %v, want %v", i, got, step.want)
		}
	}

	if _, err := f.repl.Execute(ctx, "toggle"); !errors.Is(err, connection.ErrInvalidState) {
		t.Errorf("toggle while closing error = %v, want ErrInvalidState", err)
	}
}

func TestREPL_DisconnectAbort_InvalidState(t *testing.T) {
	f := newFixture("", nil)
	ctx := context.Background()

	for _, line := range []string{"disconnect", "abort"} {
		if _, err := f.repl.Execute(ctx, line); !errors.Is(err, connection.ErrInvalidState) {
			t.Errorf("%s error = %v, want ErrInvalidState", line, err)
		}
	}
}

func TestREPL_Send_Usage(t *testing.T) {
	f := newFixture("", nil)

	if _, err := f.repl.Execute(context.Background(), "send"); err == nil {
		t.Error("send without payload should fail")
	}
}

func TestREPL_Status(t *testing.T) {
	f := newFixture("", func(c *Config) { c.Format = output.FormatJSON })

	if _, err := f.repl.Execute(context.Background(), "status"); err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(f.out.String(), `"status": "idle"`) {
		t.Errorf("status output = %q", f.out.String())
	}
}

func TestREPL_Keys(t *testing.T) {
	f := newFixture("", nil)
	if _, err := f.repl.Execute(context.Background(), "keys"); err == nil {
		t.Error("keys without a terminal should fail")
	}

	called := false
	f = newFixture("", func(c *Config) {
		c.KeyMode = func(context.Context) error {
			called = true
			return nil
		}
	})
	if _, err := f.repl.Execute(context.Background(), "keys"); err != nil {
		t.Fatalf("keys error = %v", err)
	}
	if !called {
		t.Error("KeyMode was not run")
	}
}

func TestREPL_Help(t *testing.T) {
	f := newFixture("", nil)

	if _, err := f.repl.Execute(context.Background(), "?"); err != nil {
		t.Fatalf("help error = %v", err)
	}

	out := f.out.String()
	for _, want := range []string{"connect [address]", "toggle", "keys: left=prev right=next"} {
		if !strings.Contains(out, want) {
			t.Errorf("help missing %q:\n%s", want, out)
		}
	}
}

func TestREPL_UnknownCommand_Suggests(t *testing.T) {
	f := newFixture("", nil)

	_, err := f.repl.Execute(context.Background(), "dis")
	if err == nil || !strings.Contains(err.Error(), "did you mean: disconnect") {
		t.Errorf("error = %v, want a suggestion", err)
	}
}

func TestREPL_Execute_Exit(t *testing.T) {
	f := newFixture("", nil)

	for _, line := range []string{"exit", "QUIT"} {
		exit, err := f.repl.Execute(context.Background(), line)
		if err != nil || !exit {
			t.Errorf("Execute(%q) = %v, %v; want exit", line, exit, err)
		}
	}
}
