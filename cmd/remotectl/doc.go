// Package main provides the entry point for remotectl.
//
// remotectl opens a WebSocket connection to a remote and sends it
// control commands such as prev and next:
//
//   - connect: interactive prompt, or keyboard mode with --keys
//   - send: one-shot connect, send and disconnect
//   - config: show or initialize ~/.remotectl/cli.yaml
//
// Usage:
//
//	remotectl connect ws://localhost:8080
//	remotectl connect --keys ws://localhost:8080
//	remotectl send ws://localhost:8080 next next
//	remotectl -o json config show
package main
