package repl

import "context"

type command struct {
	name    string
	aliases []string
	usage   string
	help    string
	exit    bool
	run     func(r *REPL, ctx context.Context, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{name: "connect", usage: "connect [address]", help: "open the connection", run: (*REPL).connect},
		{name: "disconnect", usage: "disconnect", help: "close the open connection", run: (*REPL).disconnect},
		{name: "abort", usage: "abort", help: "cancel a connection that is still opening", run: (*REPL).abort},
		{name: "toggle", usage: "toggle", help: "connect or disconnect", run: (*REPL).toggle},
		{name: "prev", usage: "prev", help: "send prev", run: func(r *REPL, _ context.Context, _ []string) error {
			return r.sendPayload("prev")
		}},
		{name: "next", usage: "next", help: "send next", run: func(r *REPL, _ context.Context, _ []string) error {
			return r.sendPayload("next")
		}},
		{name: "send", usage: "send <payload>", help: "send a raw payload", run: (*REPL).send},
		{name: "status", usage: "status", help: "show the connection status", run: (*REPL).status},
		{name: "keys", usage: "keys", help: "enter keyboard mode (q to leave)", run: (*REPL).keys},
		{name: "history", usage: "history", help: "list previous commands", run: (*REPL).showHistory},
		{name: "help", aliases: []string{"?"}, usage: "help", help: "show this help", run: (*REPL).help},
		{name: "exit", aliases: []string{"quit"}, usage: "exit", help: "leave", exit: true},
	}
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
		for _, a := range c.aliases {
			if a == name {
				return c, true
			}
		}
	}
	return command{}, false
}
