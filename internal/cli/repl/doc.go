// Package repl is the interactive line mode of remotectl.
//
//   - repl.go: read-eval-print loop and command handlers
//   - completer.go: command name completion
//   - history.go: history persisted to ~/.remotectl/history
//
// The prompt shows the connection status. Connecting never blocks the
// loop; transitions that happen between commands are announced when
// Notify is set.
package repl
