package connection

import (
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/remotectl/internal/telemetry/logger"
)

// watchBuffer is the capacity of each Watch channel.
const watchBuffer = 16

// Observer receives lifecycle measurements.
type Observer interface {
	ObserveTransition(from, to string)
	ObserveSend(result string)
	ObserveStale(event string)
	ObserveDropped()
}

type nopObserver struct{}

func (nopObserver) ObserveTransition(string, string) {}
func (nopObserver) ObserveSend(string)               {}
func (nopObserver) ObserveStale(string)              {}
func (nopObserver) ObserveDropped()                  {}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithObserver sets the receiver of lifecycle measurements.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		m.observer = o
	}
}

// attempt is one exclusively-owned transport handle.
type attempt struct {
	id      ulid.ULID
	address string
	handle  Handle
}

type event int

const (
	eventOpened event = iota
	eventErrored
	eventClosed
)

func (e event) String() string {
	switch e {
	case eventOpened:
		return "opened"
	case eventErrored:
		return "errored"
	default:
		return "closed"
	}
}

// Manager owns at most one transport handle at a time and drives its
// status through Idle, Opening, Open, Closing and Closed.
//
// Caller operations and transport notifications are serialized by one
// mutex, so they are applied one at a time.
type Manager struct {
	mu        sync.RWMutex
	transport Transport
	status    Status
	address   string
	current   *attempt
	lastErr   error
	disposed  bool

	watchers  map[int]chan StateChange
	nextWatch int

	logger   logger.Logger
	observer Observer
}

// NewManager creates a manager that opens connections through t.
func NewManager(t Transport, opts ...Option) *Manager {
	m := &Manager{
		transport: t,
		status:    StatusIdle,
		watchers:  make(map[int]chan StateChange),
		logger:    logger.Default(),
		observer:  nopObserver{},
	}

	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "connection")

	return m
}

// Connect starts a connection attempt to address. It returns as soon as
// the status is Opening; the outcome arrives through transport
// notifications. Connect is only allowed while Idle or Closed.
func (m *Manager) Connect(address string) error {
	if address == "" {
		return ErrEmptyAddress
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return ErrDisposed
	}
	if m.status != StatusIdle && m.status != StatusClosed {
		return &InvalidStateError{Op: "connect", Status: m.status}
	}

	a := &attempt{id: ulid.Make(), address: address}
	m.current = a
	m.lastErr = nil
	m.setStatus(StatusOpening, a, nil)

	h, err := m.transport.Open(address, &sink{m: m, a: a})
	if err != nil {
		terr := &TransportError{Attempt: a.id.String(), Address: address, Err: err}
		m.current = nil
		m.lastErr = terr
		m.setStatus(StatusClosed, a, terr)
		return terr
	}
	a.handle = h

	return nil
}

// Disconnect requests the open connection to close. The status moves to
// Closing immediately and to Idle once the transport confirms.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusOpen {
		return &InvalidStateError{Op: "disconnect", Status: m.status}
	}

	m.address = ""
	m.requestClose()
	return nil
}

// Abort cancels an attempt that has not opened yet. Like Disconnect, the
// status moves to Closing and settles to Idle once the transport confirms.
func (m *Manager) Abort() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusOpening {
		return &InvalidStateError{Op: "abort", Status: m.status}
	}

	m.requestClose()
	return nil
}

// requestClose moves to Closing and asks the handle to shut down.
// Must be called with m.mu held.
func (m *Manager) requestClose() {
	a := m.current
	m.setStatus(StatusClosing, a, nil)

	if err := a.handle.Close(); err != nil {
		// No Closed notification can be relied on after a failed close.
		m.logger.Warn("transport close failed", "attempt", a.id.String(), "error", err)
		m.current = nil
		m.setStatus(StatusIdle, a, nil)
	}
}

// Send forwards payload verbatim to the open transport. It does not wait
// for delivery. While not Open it fails with *NotOpenError and the
// transport is not touched.
func (m *Manager) Send(payload string) error {
	if payload == "" {
		return ErrEmptyPayload
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.status != StatusOpen {
		m.observer.ObserveSend("not_open")
		return &NotOpenError{Status: m.status}
	}

	a := m.current
	if err := a.handle.Send(payload); err != nil {
		m.observer.ObserveSend("error")
		m.logger.Warn("send failed", "attempt", a.id.String(), "error", err)
		return &TransportError{Attempt: a.id.String(), Address: a.address, Err: err}
	}

	m.observer.ObserveSend("ok")
	m.logger.Debug("payload sent", "attempt", a.id.String(), "payload", payload)
	return nil
}

// Dispose force-closes any outstanding handle and rejects further
// Connect calls. Watch channels are closed. It is safe to call twice.
func (m *Manager) Dispose() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return nil
	}
	m.disposed = true

	var err error
	if a := m.current; a != nil {
		m.current = nil
		m.address = ""
		if a.handle != nil {
			err = a.handle.Close()
		}
		m.setStatus(StatusIdle, a, nil)
	}

	for id, ch := range m.watchers {
		delete(m.watchers, id)
		close(ch)
	}

	m.logger.Debug("manager disposed")
	return err
}

// Watch subscribes to status changes. Events are delivered without
// blocking the manager; a watcher that falls more than a few events
// behind misses them. The returned function unsubscribes.
func (m *Manager) Watch() (<-chan StateChange, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan StateChange, watchBuffer)
	if m.disposed {
		close(ch)
		return ch, func() {}
	}

	id := m.nextWatch
	m.nextWatch++
	m.watchers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := m.watchers[id]; ok {
				delete(m.watchers, id)
				close(c)
			}
		})
	}
}

// Status returns the current status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// IsIdle reports whether no connection has been requested.
func (m *Manager) IsIdle() bool { return m.Status() == StatusIdle }

// IsOpening reports whether a connection attempt is in progress.
func (m *Manager) IsOpening() bool { return m.Status() == StatusOpening }

// IsOpen reports whether payloads can be sent.
func (m *Manager) IsOpen() bool { return m.Status() == StatusOpen }

// IsClosing reports whether a close has been requested and not yet confirmed.
func (m *Manager) IsClosing() bool { return m.Status() == StatusClosing }

// IsClosed reports whether the last connection ended without a disconnect request.
func (m *Manager) IsClosed() bool { return m.Status() == StatusClosed }

// IsRejected reports whether the last attempt ended in a transport failure.
func (m *Manager) IsRejected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status == StatusClosed && m.lastErr != nil
}

// Address returns the address of the open connection, or "" when not open.
func (m *Manager) Address() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.address
}

// LastError returns the failure of the most recent attempt, if any.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Snapshot returns status, address, attempt and last error read together.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{Status: m.status, Address: m.address}
	if m.current != nil {
		s.Attempt = m.current.id.String()
	}
	if m.lastErr != nil {
		s.LastError = m.lastErr.Error()
	}
	return s
}

// handle applies a notification from attempt a.
func (m *Manager) handle(a *attempt, ev event, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != a {
		m.observer.ObserveStale(ev.String())
		m.logger.Debug("discarding stale notification",
			"attempt", a.id.String(),
			"event", ev.String(),
		)
		return
	}

	switch m.status {
	case StatusOpening:
		switch ev {
		case eventOpened:
			m.address = a.address
			m.setStatus(StatusOpen, a, nil)
		case eventErrored:
			m.fail(a, err)
		case eventClosed:
			m.fail(a, ErrClosedBeforeOpen)
		}

	case StatusOpen:
		switch ev {
		case eventErrored:
			m.fail(a, err)
		case eventClosed:
			m.current = nil
			m.address = ""
			m.setStatus(StatusClosed, a, nil)
		default:
			m.logger.Debug("ignoring duplicate opened notification", "attempt", a.id.String())
		}

	case StatusClosing:
		if ev == eventClosed {
			m.current = nil
			m.address = ""
			m.setStatus(StatusIdle, a, nil)
			return
		}
		m.logger.Debug("ignoring notification while closing",
			"attempt", a.id.String(),
			"event", ev.String(),
			"error", err,
		)
	}
}

// fail records err for attempt a, releases its handle and moves to Closed.
// Must be called with m.mu held.
func (m *Manager) fail(a *attempt, err error) {
	terr := &TransportError{Attempt: a.id.String(), Address: a.address, Err: err}
	m.lastErr = terr
	m.current = nil
	m.address = ""
	m.setStatus(StatusClosed, a, terr)

	// The Closed notification this triggers arrives stale and is dropped.
	if a.handle != nil {
		if cerr := a.handle.Close(); cerr != nil {
			m.logger.Debug("closing failed handle", "attempt", a.id.String(), "error", cerr)
		}
	}
}

// setStatus records a transition and fans it out to watchers.
// Must be called with m.mu held.
func (m *Manager) setStatus(to Status, a *attempt, err error) {
	from := m.status
	m.status = to

	change := StateChange{From: from, To: to, Address: m.address, Err: err}
	if a != nil {
		change.Attempt = a.id.String()
	}

	m.observer.ObserveTransition(from.String(), to.String())
	if err != nil {
		m.logger.Warn("connection status changed",
			"from", from.String(),
			"to", to.String(),
			"attempt", change.Attempt,
			"error", err,
		)
	} else {
		m.logger.Info("connection status changed",
			"from", from.String(),
			"to", to.String(),
			"attempt", change.Attempt,
		)
	}

	for _, ch := range m.watchers {
		select {
		case ch <- change:
		default:
			m.observer.ObserveDropped()
		}
	}
}

// sink binds transport notifications to the attempt that produced them.
type sink struct {
	m *Manager
	a *attempt
}

func (s *sink) Opened()           { s.m.handle(s.a, eventOpened, nil) }
func (s *sink) Errored(err error) { s.m.handle(s.a, eventErrored, err) }
func (s *sink) Closed()           { s.m.handle(s.a, eventClosed, nil) }
