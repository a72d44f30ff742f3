package connection

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState matches every *InvalidStateError.
	ErrInvalidState = errors.New("connection: invalid state")

	// ErrNotOpen matches every *NotOpenError.
	ErrNotOpen = errors.New("connection: not open")

	// ErrEmptyAddress is returned when connecting without an address.
	ErrEmptyAddress = errors.New("connection: address is empty")

	// ErrEmptyPayload is returned when sending an empty payload.
	ErrEmptyPayload = errors.New("connection: payload is empty")

	// ErrDisposed is returned by a manager after Dispose.
	ErrDisposed = errors.New("connection: manager disposed")

	// ErrClosedBeforeOpen is recorded when a transport closes without
	// ever reporting that it opened.
	ErrClosedBeforeOpen = errors.New("connection: closed before open")

	// ErrUnsupportedScheme is returned for addresses that are not ws/wss/http/https.
	ErrUnsupportedScheme = errors.New("connection: unsupported scheme")

	// ErrSendQueueFull is returned when the transport cannot accept more payloads.
	ErrSendQueueFull = errors.New("connection: send queue full")

	// ErrHandleClosed is returned when sending on a handle after Close.
	ErrHandleClosed = errors.New("connection: handle closed")
)

// InvalidStateError reports an operation attempted in a status that does
// not allow it. The manager's state is unchanged.
type InvalidStateError struct {
	Op     string
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("connection: cannot %s while %s", e.Op, e.Status)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// NotOpenError reports a send attempted while the connection is not open.
type NotOpenError struct {
	Status Status
}

func (e *NotOpenError) Error() string {
	return fmt.Sprintf("connection: not open (status %s)", e.Status)
}

func (e *NotOpenError) Is(target error) bool {
	return target == ErrNotOpen
}

// TransportError is a failure reported by the transport for one attempt.
type TransportError struct {
	Attempt string
	Address string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("connection: transport %s: %v", e.Address, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
