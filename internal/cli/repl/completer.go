package repl

import (
	"sort"
	"strings"
)

// Completer suggests command names.
type Completer struct {
	commands []string
}

// NewCompleter creates a completer over the REPL's commands.
func NewCompleter() *Completer {
	names := make([]string, 0, len(commands))
	for _, c := range commands {
		names = append(names, c.name)
		names = append(names, c.aliases...)
	}
	sort.Strings(names)
	return &Completer{commands: names}
}

// Complete returns the commands starting with prefix.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.TrimLeft(prefix, " ")
	var out []string
	for _, name := range c.commands {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}
