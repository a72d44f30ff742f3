package connection

import (
	"context"
	"slices"
)

// AwaitStatus blocks until m reaches one of want or ctx is done. The
// manager enforces no timeouts itself; callers bound the wait with ctx.
func AwaitStatus(ctx context.Context, m *Manager, want ...Status) (Status, error) {
	changes, cancel := m.Watch()
	defer cancel()

	if s := m.Status(); slices.Contains(want, s) {
		return s, nil
	}

	for {
		select {
		case <-ctx.Done():
			return m.Status(), ctx.Err()
		case change, ok := <-changes:
			if !ok {
				return m.Status(), ErrDisposed
			}
			if slices.Contains(want, change.To) {
				return change.To, nil
			}
			// Events can be dropped under load; the current status is authoritative.
			if s := m.Status(); slices.Contains(want, s) {
				return s, nil
			}
		}
	}
}
