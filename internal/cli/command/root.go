package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/yndnr/remotectl/internal/cli/config"
	"github.com/yndnr/remotectl/internal/cli/connection"
	"github.com/yndnr/remotectl/internal/infra/buildinfo"
	"github.com/yndnr/remotectl/internal/infra/tlsroots"
	"github.com/yndnr/remotectl/internal/telemetry/logger"
	"github.com/yndnr/remotectl/internal/telemetry/metric"
)

const metaRuntime = "runtime"

// teardownTimeout bounds disposal and metrics server shutdown.
const teardownTimeout = 3 * time.Second

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "remotectl",
		Usage:   "Remote control client for WebSocket endpoints",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ConnectCommand(),
			SendCommand(),
			ConfigCommand(),
		},
		Before: setup,
		After:  teardown,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Default remote address (e.g., ws://localhost:8080)",
			EnvVars: []string{"REMOTECTL_SERVER"},
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file path (default ~/.remotectl/cli.yaml)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: console, json",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Also write JSON logs to this file",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Serve Prometheus metrics on this address (e.g., 127.0.0.1:9090)",
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "PEM bundle trusted for wss:// addresses",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// flagKeys maps global flags to config keys.
var flagKeys = map[string]string{
	"server":       "server",
	"output":       "output",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"log-file":     "log.file",
	"metrics-addr": "metrics.addr",
	"ca-file":      "tls.ca_file",
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	ConfigPath string

	// Overrides holds explicitly set flags keyed by config path.
	Overrides map[string]any
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	overrides := make(map[string]any)
	for name, key := range flagKeys {
		if c.IsSet(name) {
			overrides[key] = c.String(name)
		}
	}
	if c.Bool("verbose") {
		overrides["log.level"] = "debug"
	}

	return &GlobalFlags{
		ConfigPath: c.String("config"),
		Overrides:  overrides,
	}
}

// Runtime is the state shared by all commands of one invocation.
type Runtime struct {
	Config     *config.CLIConfig
	ConfigPath string
	Overrides  map[string]any
	Logger     logger.Logger
	Manager    *connection.Manager

	metrics *metric.Server
}

// NewRuntime builds the logger, transport and connection manager
// described by cfg and starts the metrics endpoint when configured.
func NewRuntime(cfg *config.CLIConfig, errOut io.Writer) (*Runtime, error) {
	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     errOut,
		File:       cfg.Log.File,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logger.SetDefault(log)

	tlsConf, err := tlsroots.ClientConfig(cfg.TLS.CAFile)
	if err != nil {
		return nil, err
	}

	transport := connection.NewWebSocketTransport(connection.WebSocketConfig{
		HandshakeTimeout: cfg.WebSocket.HandshakeTimeout.Std(),
		WriteTimeout:     cfg.WebSocket.WriteTimeout.Std(),
		CloseGracePeriod: cfg.WebSocket.CloseGracePeriod.Std(),
		SendQueueSize:    cfg.WebSocket.SendQueueSize,
		TLSConfig:        tlsConf,
	}, log)

	rt := &Runtime{
		Config: cfg,
		Logger: log,
		Manager: connection.NewManager(transport,
			connection.WithLogger(log),
			connection.WithObserver(metric.Global()),
		),
	}

	if cfg.Metrics.Addr != "" {
		rt.metrics = metric.NewServer(cfg.Metrics.Addr, metric.Global(), log)
		if _, err := rt.metrics.Start(); err != nil {
			return nil, fmt.Errorf("start metrics server: %w", err)
		}
	}

	return rt, nil
}

// Close disposes the manager and stops the metrics endpoint.
func (rt *Runtime) Close(ctx context.Context) error {
	err := rt.Manager.Dispose()
	if rt.metrics != nil {
		if serr := rt.metrics.Shutdown(ctx); serr != nil {
			err = multierr.Append(err, fmt.Errorf("stop metrics server: %w", serr))
		}
	}
	_ = rt.Logger.Sync()
	return err
}

func setup(c *cli.Context) error {
	flags := ParseGlobalFlags(c)

	cfg, err := config.Load(flags.ConfigPath, flags.Overrides)
	if err != nil {
		return err
	}

	rt, err := NewRuntime(cfg, errWriter(c))
	if err != nil {
		return err
	}
	rt.ConfigPath = flags.ConfigPath
	rt.Overrides = flags.Overrides

	ctx := logger.WithSessionID(c.Context, ulid.Make().String())
	c.Context = logger.WithLogger(ctx, rt.Logger)

	c.App.Metadata[metaRuntime] = rt
	return nil
}

func teardown(c *cli.Context) error {
	rt, ok := c.App.Metadata[metaRuntime].(*Runtime)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	return rt.Close(ctx)
}

// GetRuntime retrieves the runtime from context.
func GetRuntime(c *cli.Context) (*Runtime, error) {
	if rt, ok := c.App.Metadata[metaRuntime].(*Runtime); ok {
		return rt, nil
	}
	return nil, fmt.Errorf("runtime not initialized")
}

func outWriter(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
