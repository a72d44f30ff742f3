package control

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/yndnr/remotectl/internal/cli/connection"
	"github.com/yndnr/remotectl/internal/telemetry/logger"
)

// Sender forwards a payload. *connection.Manager implements it.
type Sender interface {
	Send(payload string) error
}

// Result is the outcome of dispatching one key.
type Result int

const (
	// Sent means the payload was handed to the connection.
	Sent Result = iota
	// Unbound means no payload is bound to the key.
	Unbound
	// Throttled means the key arrived faster than the configured rate.
	Throttled
	// NotOpen means the connection was not open; the key was dropped.
	NotOpen
	// Failed means the transport refused the payload.
	Failed
)

func (r Result) String() string {
	switch r {
	case Sent:
		return "sent"
	case Unbound:
		return "unbound"
	case Throttled:
		return "throttled"
	case NotOpen:
		return "not_open"
	default:
		return "failed"
	}
}

// Event describes one dispatched key.
type Event struct {
	Key     Key
	Payload string
	Result  Result
	Err     error
}

// Dispatcher sends the payloads bound to keys.
type Dispatcher struct {
	sender  Sender
	keymap  *Keymap
	limiter atomic.Pointer[rate.Limiter]
	logger  logger.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRate limits dispatch to r keys per second with the given burst.
// A rate of zero or less disables limiting.
func WithRate(r float64, burst int) DispatcherOption {
	return func(d *Dispatcher) {
		d.SetRate(r, burst)
	}
}

// WithDispatchLogger sets the dispatcher's logger.
func WithDispatchLogger(l logger.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// NewDispatcher creates a dispatcher sending through s.
func NewDispatcher(s Sender, km *Keymap, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender: s,
		keymap: km,
		logger: logger.Default(),
	}
	d.limiter.Store(rate.NewLimiter(rate.Inf, 1))
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "control")
	return d
}

// SetRate replaces the rate limit with a full bucket.
func (d *Dispatcher) SetRate(r float64, burst int) {
	if r <= 0 {
		d.limiter.Store(rate.NewLimiter(rate.Inf, 1))
		return
	}
	if burst < 1 {
		burst = 1
	}
	d.limiter.Store(rate.NewLimiter(rate.Limit(r), burst))
}

// Keymap returns the dispatcher's keymap.
func (d *Dispatcher) Keymap() *Keymap {
	return d.keymap
}

// Dispatch sends the payload bound to key.
func (d *Dispatcher) Dispatch(key Key) Event {
	ev := Event{Key: key}

	payload, ok := d.keymap.Lookup(key)
	if !ok {
		ev.Result = Unbound
		return ev
	}
	ev.Payload = payload

	if !d.limiter.Load().Allow() {
		ev.Result = Throttled
		d.logger.Debug("key throttled", "key", string(key))
		return ev
	}

	err := d.sender.Send(payload)
	switch {
	case err == nil:
		ev.Result = Sent
	case errors.Is(err, connection.ErrNotOpen):
		ev.Result = NotOpen
		d.logger.Debug("key ignored, connection not open", "key", string(key))
	default:
		ev.Result = Failed
		ev.Err = err
		d.logger.Warn("send failed", "key", string(key), "payload", payload, "error", err)
	}
	return ev
}

// Run reads keys from kr and dispatches them until KeyQuit, end of input,
// or ctx is done. report, when non-nil, is called for every key.
//
// A read in progress cannot be interrupted. When Run returns because ctx
// is done, its reader stays blocked until the next byte arrives and
// consumes it; callers that read the same input afterwards lose that
// byte. Leaving with q or Ctrl-C does not have this problem.
func (d *Dispatcher) Run(ctx context.Context, kr *KeyReader, report func(Event)) error {
	keys := make(chan Key)
	errs := make(chan error, 1)

	go func() {
		for {
			k, err := kr.ReadKey()
			if err != nil {
				errs <- err
				return
			}
			select {
			case keys <- k:
			case <-ctx.Done():
				return
			}
			if k == KeyQuit {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case k := <-keys:
			if k == KeyQuit {
				return nil
			}
			if k == KeyNone {
				continue
			}
			ev := d.Dispatch(k)
			if report != nil {
				report(ev)
			}
		}
	}
}
