// Package control turns key presses into payloads sent over the
// connection.
//
//   - keymap.go: key name to payload bindings (left=prev, right=next)
//   - keyboard.go: raw terminal mode and ANSI key decoding
//   - dispatcher.go: rate-limited sending gated by connection status
//
// Keys pressed while the connection is not open are dropped, matching
// the behavior of a remote whose buttons are disabled.
package control
