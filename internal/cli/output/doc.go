// Package output renders remotectl results for the terminal.
//
//   - formatter.go: Formatter interface and factory
//   - table.go, json.go, yaml.go: the table, json and yaml formats
//   - status.go: colored connection status and the REPL prompt
//   - spinner.go: animation shown while a connection is opening
//
// Color is disabled automatically when stdout is not a terminal.
package output
