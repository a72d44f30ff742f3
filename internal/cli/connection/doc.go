// Package connection provides connection management for remotectl.
//
// This package owns the lifecycle of the single control connection:
//
//   - status.go: Status enum and status change events
//   - manager.go: Lifecycle state machine (connect, disconnect, abort, send)
//   - transport.go: Contract between the manager and a transport adapter
//   - websocket.go: WebSocket transport adapter
//   - address.go: Server address normalization
//   - await.go: Bounded waits layered on status change events
//
// The manager gates every outbound payload on its status and discards
// notifications from transport handles it no longer owns.
package connection
