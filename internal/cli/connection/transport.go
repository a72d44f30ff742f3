package connection

// Transport opens connections to a single endpoint each.
//
// Open must not block and must not invoke events before it returns.
// Notifications are delivered from the transport's own goroutines.
type Transport interface {
	Open(address string, events Events) (Handle, error)
}

// Handle is one connection attempt returned by Transport.Open.
type Handle interface {
	// Send queues payload for delivery. It never waits for acknowledgment.
	Send(payload string) error
	// Close requests shutdown. Exactly one Closed notification follows.
	// Close must not deliver notifications before it returns: the
	// manager calls it with its lock held.
	Close() error
}

// Events receives the notifications of one handle. Each method is
// called at most once. Errored may come instead of Opened, after it,
// or before Closed.
type Events interface {
	Opened()
	Errored(err error)
	Closed()
}
