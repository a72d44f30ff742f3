package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/yndnr/remotectl/internal/cli/connection"
	"github.com/yndnr/remotectl/internal/cli/control"
	"github.com/yndnr/remotectl/internal/cli/output"
	"github.com/yndnr/remotectl/internal/telemetry/logger"
)

// ErrNoAddress is returned by connect when neither an argument nor a
// default address is available.
var ErrNoAddress = errors.New("no address; use: connect <address>")

// Config configures a REPL.
type Config struct {
	Manager *connection.Manager
	// Address is used by connect and toggle when no address is given.
	Address string
	Format  output.Format
	History *History
	// Keymap is listed by help. Nil means the default arrow bindings.
	Keymap *control.Keymap
	// KeyMode runs keyboard mode; nil disables the keys command.
	KeyMode func(ctx context.Context) error
	// Notify announces connection changes that happen between commands.
	Notify bool

	Input  io.Reader
	Output io.Writer
	Logger logger.Logger
}

// REPL is the read-eval-print loop.
type REPL struct {
	manager   *connection.Manager
	address   string
	format    output.Format
	history   *History
	keymap    *control.Keymap
	keyMode   func(ctx context.Context) error
	notify    bool
	completer *Completer

	input  io.Reader
	output *syncWriter
	logger logger.Logger
}

// New creates a REPL.
func New(cfg Config) *REPL {
	r := &REPL{
		manager:   cfg.Manager,
		address:   cfg.Address,
		format:    cfg.Format,
		history:   cfg.History,
		keymap:    cfg.Keymap,
		keyMode:   cfg.KeyMode,
		notify:    cfg.Notify,
		completer: NewCompleter(),
		input:     cfg.Input,
		logger:    cfg.Logger,
	}

	if r.history == nil {
		r.history = NewHistory("", 0)
	}
	if r.keymap == nil {
		r.keymap = control.DefaultKeymap()
	}
	if r.input == nil {
		r.input = os.Stdin
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	r.output = &syncWriter{w: cfg.Output}
	if r.logger == nil {
		r.logger = logger.Default()
	}
	r.logger = r.logger.With("component", "repl")

	return r
}

// Run reads and executes lines until exit, end of input or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		r.logger.Warn("failed to load history", "error", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			r.logger.Warn("failed to save history", "error", err)
		}
	}()

	if r.notify {
		changes, cancel := r.manager.Watch()
		defer cancel()
		go r.announce(changes)
	}

	// The reader only reads when asked so keyboard mode owns the input
	// while it runs.
	next := make(chan struct{})
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		reader := bufio.NewReader(r.input)
		for {
			select {
			case <-next:
			case <-ctx.Done():
				return
			}
			line, err := reader.ReadString('\n')
			if err != nil {
				errs <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		r.printf("%s", output.Prompt(r.manager.Snapshot()))

		select {
		case next <- struct{}{}:
		case <-ctx.Done():
			r.printf("\n")
			return nil
		}

		var line string
		select {
		case <-ctx.Done():
			r.printf("\n")
			return nil
		case err := <-errs:
			r.printf("\n")
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case line = <-lines:
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		exit, err := r.Execute(ctx, line)
		if err != nil {
			r.printf("Error: %v\n", err)
		}
		if exit {
			return nil
		}
	}
}

// Execute runs one command line and reports whether the REPL should exit.
func (r *REPL) Execute(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	name, args := strings.ToLower(fields[0]), fields[1:]
	cmd, ok := lookup(name)
	if !ok {
		if s := r.completer.Complete(name); len(s) > 0 {
			return false, fmt.Errorf("unknown command %q, did you mean: %s", name, strings.Join(s, ", "))
		}
		return false, fmt.Errorf("unknown command %q, type help for a list", name)
	}
	if cmd.exit {
		return true, nil
	}

	r.logger.Debug("executing command", "command", cmd.name, "args", len(args))
	return false, cmd.run(r, ctx, args)
}

func (r *REPL) connect(_ context.Context, args []string) error {
	address := r.address
	if len(args) > 0 {
		address = args[0]
	}
	if address == "" {
		return ErrNoAddress
	}

	if err := r.manager.Connect(address); err != nil {
		return err
	}
	r.address = address
	r.printf("connecting to %s\n", address)
	return nil
}

func (r *REPL) disconnect(_ context.Context, _ []string) error {
	if err := r.manager.Disconnect(); err != nil {
		return err
	}
	r.printf("disconnecting\n")
	return nil
}

func (r *REPL) abort(_ context.Context, _ []string) error {
	if err := r.manager.Abort(); err != nil {
		return err
	}
	r.printf("aborting\n")
	return nil
}

// toggle is the single connect/disconnect button of the remote.
func (r *REPL) toggle(ctx context.Context, _ []string) error {
	switch s := r.manager.Status(); s {
	case connection.StatusOpen:
		return r.disconnect(ctx, nil)
	case connection.StatusOpening:
		return r.abort(ctx, nil)
	case connection.StatusIdle, connection.StatusClosed:
		return r.connect(ctx, nil)
	default:
		return &connection.InvalidStateError{Op: "toggle", Status: s}
	}
}

func (r *REPL) sendPayload(payload string) error {
	if err := r.manager.Send(payload); err != nil {
		return err
	}
	r.printf("sent %s\n", payload)
	return nil
}

func (r *REPL) send(_ context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: send <payload>")
	}
	return r.sendPayload(strings.Join(args, " "))
}

func (r *REPL) status(_ context.Context, _ []string) error {
	return output.PrintStatus(r.output, r.format, r.manager.Snapshot())
}

func (r *REPL) keys(ctx context.Context, _ []string) error {
	if r.keyMode == nil {
		return errors.New("keyboard mode needs an interactive terminal")
	}
	return r.keyMode(ctx)
}

func (r *REPL) showHistory(_ context.Context, _ []string) error {
	for i, entry := range r.history.Entries() {
		r.printf("%4d  %s\n", i+1, entry)
	}
	return nil
}

func (r *REPL) help(_ context.Context, _ []string) error {
	t := output.NewTable("command", "description")
	for _, c := range commands {
		t.AddRow(c.usage, c.help)
	}
	if err := t.Render(r.output, false); err != nil {
		return err
	}
	r.printf("\nkeys: %s\n", control.Legend(r.keymap))
	return nil
}

// announce reports transitions into Open and Closed.
func (r *REPL) announce(changes <-chan connection.StateChange) {
	for change := range changes {
		switch change.To {
		case connection.StatusOpen:
			r.printf("\n%s\n", output.StatusLine(connection.Snapshot{Status: change.To, Address: change.Address}))
		case connection.StatusClosed:
			if change.Err == nil {
				r.printf("\nconnection closed by server\n")
				continue
			}
			snap := connection.Snapshot{Status: change.To, LastError: change.Err.Error()}
			r.printf("\n%s\n", output.StatusLine(snap))
		}
	}
}

func (r *REPL) printf(format string, args ...any) {
	fmt.Fprintf(r.output, format, args...)
}

// syncWriter serializes writes from the loop and the announcer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
