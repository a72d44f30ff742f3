package control

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// RunTerminal switches in to raw mode and dispatches key presses until
// q, Ctrl-C or end of input. Each dispatched key is echoed to out.
// See Dispatcher.Run for what happens to input when ctx ends first.
func RunTerminal(ctx context.Context, in *os.File, out io.Writer, d *Dispatcher) error {
	t, err := MakeRaw(in)
	if err != nil {
		return err
	}
	defer t.Restore()

	fmt.Fprintf(out, "keyboard mode (%s), q to leave\r\n", Legend(d.Keymap()))

	return d.Run(ctx, NewKeyReader(in), func(ev Event) {
		if ev.Result == Unbound {
			return
		}
		fmt.Fprintf(out, "%s\r\n", FormatEvent(ev))
	})
}

// Legend lists the bindings as "left=prev right=next".
func Legend(km *Keymap) string {
	bindings := km.Bindings()
	parts := make([]string, 0, len(bindings))
	for _, k := range km.Keys() {
		parts = append(parts, k+"="+bindings[k])
	}
	return strings.Join(parts, " ")
}

// FormatEvent renders a dispatched key for display.
func FormatEvent(ev Event) string {
	switch ev.Result {
	case Sent:
		return fmt.Sprintf("%s -> %s", ev.Key, ev.Payload)
	case Failed:
		return fmt.Sprintf("%s -> %s failed: %v", ev.Key, ev.Payload, ev.Err)
	default:
		return fmt.Sprintf("%s -> %s (%s)", ev.Key, ev.Payload, ev.Result)
	}
}
