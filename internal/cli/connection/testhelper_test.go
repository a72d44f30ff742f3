package connection

import (
	"sync"

	"github.com/yndnr/remotectl/internal/telemetry/logger"
)

// fakeTransport records every handle it opens; tests fire notifications by hand.
type fakeTransport struct {
	mu      sync.Mutex
	handles []*fakeHandle
	openErr error
}

func (t *fakeTransport) Open(address string, events Events) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.openErr != nil {
		return nil, t.openErr
	}
	h := &fakeHandle{address: address, events: events}
	t.handles = append(t.handles, h)
	return h, nil
}

func (t *fakeTransport) last() *fakeHandle {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.handles) == 0 {
		return nil
	}
	return t.handles[len(t.handles)-1]
}

func (t *fakeTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles)
}

// live counts handles that were neither asked to close nor finished on their own.
func (t *fakeTransport) live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, h := range t.handles {
		if !h.released() {
			n++
		}
	}
	return n
}

type fakeHandle struct {
	address string
	events  Events

	mu         sync.Mutex
	sent       []string
	closeCalls int
	finished   bool
	sendErr    error
	closeErr   error
}

func (h *fakeHandle) Send(payload string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sendErr != nil {
		return h.sendErr
	}
	h.sent = append(h.sent, payload)
	return nil
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeCalls++
	return h.closeErr
}

func (h *fakeHandle) open() { h.events.Opened() }

func (h *fakeHandle) fail(err error) {
	h.mu.Lock()
	h.finished = true
	h.mu.Unlock()
	h.events.Errored(err)
}

func (h *fakeHandle) closed() {
	h.mu.Lock()
	h.finished = true
	h.mu.Unlock()
	h.events.Closed()
}

func (h *fakeHandle) payloads() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.sent...)
}

func (h *fakeHandle) closes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closeCalls
}

func (h *fakeHandle) released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.finished || h.closeCalls > 0
}

// recordingObserver captures lifecycle measurements.
type recordingObserver struct {
	mu          sync.Mutex
	transitions []string
	sends       map[string]int
	stale       map[string]int
	dropped     int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		sends: make(map[string]int),
		stale: make(map[string]int),
	}
}

func (o *recordingObserver) ObserveTransition(from, to string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, from+"->"+to)
}

func (o *recordingObserver) ObserveSend(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sends[result]++
}

func (o *recordingObserver) ObserveStale(event string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stale[event]++
}

func (o *recordingObserver) ObserveDropped() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped++
}

func newTestManager(opts ...Option) (*Manager, *fakeTransport) {
	tr := &fakeTransport{}
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	return NewManager(tr, opts...), tr
}

// openManager returns a manager already Open on addr.
func openManager(addr string, opts ...Option) (*Manager, *fakeTransport, *fakeHandle) {
	m, tr := newTestManager(opts...)
	if err := m.Connect(addr); err != nil {
		panic(err)
	}
	h := tr.last()
	h.open()
	return m, tr, h
}
