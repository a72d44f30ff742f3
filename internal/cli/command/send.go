package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/remotectl/internal/cli/connection"
	"github.com/yndnr/remotectl/internal/cli/output"
)

// SendCommand returns the one-shot send command.
func SendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Connect, send payloads in order and disconnect",
		ArgsUsage: "ADDR PAYLOAD...",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "wait",
				Usage: "How long to wait for the connection to open and to close",
				Value: 5 * time.Second,
			},
		},
		Action: sendAction,
	}
}

func sendAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("address and at least one payload required")
	}
	addr := c.Args().First()
	payloads := c.Args().Tail()

	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	m := rt.Manager
	wait := c.Duration("wait")
	out := outWriter(c)

	if err := m.Connect(addr); err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}

	ctx, cancel := context.WithTimeout(c.Context, wait)
	defer cancel()

	status, err := connection.AwaitStatus(ctx, m, connection.StatusOpen, connection.StatusClosed)
	if err != nil {
		if m.IsOpening() {
			_ = m.Abort()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("connect %s: not open after %s", addr, wait)
		}
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	if status != connection.StatusOpen {
		return connectFailure(m, addr)
	}

	for _, payload := range payloads {
		if err := m.Send(payload); err != nil {
			closeConnection(m, rt.Logger, wait)
			return fmt.Errorf("send %q: %w", payload, err)
		}
		output.Success(out, "sent %s", payload)
	}

	if err := m.Disconnect(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}

	closeCtx, closeCancel := context.WithTimeout(c.Context, wait)
	defer closeCancel()
	status, err = connection.AwaitStatus(closeCtx, m, connection.StatusIdle, connection.StatusClosed)
	if err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	if status == connection.StatusClosed {
		if lerr := m.LastError(); lerr != nil {
			return fmt.Errorf("disconnect: %w", lerr)
		}
	}
	return nil
}
