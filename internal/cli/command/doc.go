// Package command provides the remotectl command definitions.
//
// This package defines the CLI using urfave/cli/v2:
//
//   - root.go: application, global flags, runtime setup and teardown
//   - connect.go: interactive session (REPL or keyboard mode)
//   - send.go: one-shot connect, send and disconnect
//   - config.go: configuration subcommand group
//
// Commands follow a consistent pattern of reading the runtime built by
// the Before hook, driving the connection manager and formatting output.
package command
