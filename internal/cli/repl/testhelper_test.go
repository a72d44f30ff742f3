package repl

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/remotectl/internal/cli/connection"
	"github.com/yndnr/remotectl/internal/cli/output"
	"github.com/yndnr/remotectl/internal/telemetry/logger"
)

// memTransport opens in-memory handles; tests drive their notifications.
type memTransport struct {
	mu      sync.Mutex
	handles []*memHandle
}

func (t *memTransport) Open(address string, events connection.Events) (connection.Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := &memHandle{events: events}
	t.handles = append(t.handles, h)
	return h, nil
}

func (t *memTransport) last() *memHandle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handles[len(t.handles)-1]
}

type memHandle struct {
	events connection.Events
	mu     sync.Mutex
	sent   []string
	closed bool
}

func (h *memHandle) Send(payload string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, payload)
	return nil
}

func (h *memHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *memHandle) payloads() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.sent...)
}

type fixture struct {
	repl *REPL
	mgr  *connection.Manager
	tr   *memTransport
	out  *bytes.Buffer
}

func newFixture(input string, modify func(*Config)) *fixture {
	output.SetColor(false)

	tr := &memTransport{}
	mgr := connection.NewManager(tr, connection.WithLogger(logger.Nop()))
	out := &bytes.Buffer{}

	cfg := Config{
		Manager: mgr,
		Format:  output.FormatTable,
		Input:   strings.NewReader(input),
		Output:  out,
		Logger:  logger.Nop(),
	}
	if modify != nil {
		modify(&cfg)
	}

	return &fixture{repl: New(cfg), mgr: mgr, tr: tr, out: out}
}

// text reads the output under the writer's lock.
func (f *fixture) text() string {
	f.repl.output.mu.Lock()
	defer f.repl.output.mu.Unlock()
	return f.out.String()
}

func waitOutput(t *testing.T, f *fixture, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(f.text(), want) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("output never contained %q:\n%s", want, f.text())
}

// waitWatchers waits for the first prompt, which Run prints after
// subscribing to status changes.
func waitWatchers(t *testing.T, f *fixture) {
	t.Helper()
	waitOutput(t, f, "remotectl[")
}
