package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/remotectl/internal/cli/config"
	"github.com/yndnr/remotectl/internal/cli/connection"
	"github.com/yndnr/remotectl/internal/cli/control"
	"github.com/yndnr/remotectl/internal/cli/output"
	"github.com/yndnr/remotectl/internal/cli/repl"
	"github.com/yndnr/remotectl/internal/infra/confloader"
	"github.com/yndnr/remotectl/internal/infra/shutdown"
	"github.com/yndnr/remotectl/internal/telemetry/logger"
)

// shutdownTimeout bounds the hooks run on interrupt.
const shutdownTimeout = 5 * time.Second

// ConnectCommand returns the connect command.
func ConnectCommand() *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Connect to a remote and control it interactively",
		ArgsUsage: "[ADDR]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "keys",
				Aliases: []string{"k"},
				Usage:   "Start in keyboard mode instead of the command prompt",
			},
			&cli.DurationFlag{
				Name:  "wait",
				Usage: "How long to wait for the connection to open",
				Value: 10 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "no-watch",
				Usage: "Do not reload the config file when it changes",
			},
		},
		Action: connectAction,
	}
}

func connectAction(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	addr := c.Args().First()
	if addr == "" {
		addr = rt.Config.Server
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	log := logger.L(ctx)

	h := shutdown.NewHandler(shutdownTimeout)
	h.OnShutdown(func(context.Context) error {
		cancel()
		return nil
	})
	go func() {
		if err := h.Wait(ctx); err != nil {
			log.Warn("shutdown hooks failed", "error", err)
		}
	}()
	defer func() {
		h.Trigger()
		<-h.Done()
	}()

	km, err := control.NewKeymap(rt.Config.Keymap)
	if err != nil {
		return fmt.Errorf("keymap: %w", err)
	}
	d := control.NewDispatcher(rt.Manager, km,
		control.WithRate(rt.Config.Dispatch.Rate, rt.Config.Dispatch.Burst),
		control.WithDispatchLogger(log),
	)

	if !c.Bool("no-watch") {
		if w := watchConfig(rt, km, d); w != nil {
			defer w.Stop()
		}
	}

	out := outWriter(c)
	if err := rt.Manager.Connect(addr); err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	opened := awaitOpen(ctx, c, rt.Manager, addr, c.Duration("wait"))

	stdin := inputFile(c)
	keyMode := func(ctx context.Context) error {
		return control.RunTerminal(ctx, stdin, out, d)
	}

	if c.Bool("keys") {
		if !opened {
			return connectFailure(rt.Manager, addr)
		}
		err = keyMode(ctx)
	} else {
		format, ferr := output.ParseFormat(rt.Config.Output)
		if ferr != nil {
			return ferr
		}
		r := repl.New(repl.Config{
			Manager: rt.Manager,
			Address: addr,
			Format:  format,
			History: repl.NewHistory(rt.Config.History.File, rt.Config.History.Size),
			Keymap:  km,
			KeyMode: keyMode,
			Notify:  true,
			Input:   inputReader(c),
			Output:  out,
			Logger:  log,
		})
		err = r.Run(ctx)
	}

	closeConnection(rt.Manager, log, rt.Config.WebSocket.CloseGracePeriod.Std())
	return err
}

// awaitOpen shows a spinner until the connection opens, fails or wait
// elapses. It reports whether the connection is open.
func awaitOpen(ctx context.Context, c *cli.Context, m *connection.Manager, addr string, wait time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	sp := output.NewSpinner(errWriter(c), "connecting to "+addr)
	sp.Start()

	status, err := connection.AwaitStatus(ctx, m, connection.StatusOpen, connection.StatusClosed)
	if err == nil && status == connection.StatusOpen {
		sp.Success("connected to " + addr)
		return true
	}

	if err != nil && m.IsOpening() {
		_ = m.Abort()
	}
	sp.Fail(connectFailure(m, addr).Error())
	return false
}

func connectFailure(m *connection.Manager, addr string) error {
	if err := m.LastError(); err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	return fmt.Errorf("connect %s: connection not open (%s)", addr, m.Status())
}

// closeConnection disconnects an open connection and waits briefly for
// the close handshake so queued payloads are flushed.
func closeConnection(m *connection.Manager, l logger.Logger, grace time.Duration) {
	switch m.Status() {
	case connection.StatusOpen:
		if err := m.Disconnect(); err != nil {
			l.Warn("disconnect failed", "error", err)
			return
		}
	case connection.StatusOpening:
		_ = m.Abort()
	case connection.StatusClosing:
	default:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), grace+time.Second)
	defer cancel()
	if _, err := connection.AwaitStatus(ctx, m, connection.StatusIdle, connection.StatusClosed); err != nil {
		l.Debug("close did not complete", "error", err)
	}
}

// watchConfig applies log level, keymap and dispatch rate changes from
// the config file. It returns nil when the file cannot be watched.
func watchConfig(rt *Runtime, km *control.Keymap, d *control.Dispatcher) *confloader.Watcher {
	w, err := config.Watch(rt.ConfigPath, rt.Overrides, rt.Logger, func(cfg *config.CLIConfig) {
		logger.SetLevel(cfg.Log.Level)
		if err := km.Replace(cfg.Keymap); err != nil {
			rt.Logger.Warn("keymap not reloaded", "error", err)
		}
		d.SetRate(cfg.Dispatch.Rate, cfg.Dispatch.Burst)
	})
	if err != nil {
		rt.Logger.Debug("config watch disabled", "error", err)
		return nil
	}
	return w
}

func inputReader(c *cli.Context) io.Reader {
	if c.App.Reader != nil {
		return c.App.Reader
	}
	return os.Stdin
}

func inputFile(c *cli.Context) *os.File {
	if f, ok := c.App.Reader.(*os.File); ok {
		return f
	}
	return os.Stdin
}
