package config

import (
	"fmt"
	"slices"
	"time"
)

// CLIConfig is the configuration for remotectl.
type CLIConfig struct {
	// Server is the address used when a command is given none.
	Server string `koanf:"server" yaml:"server" json:"server"`
	// Output is the format of the status command: table, json or yaml.
	Output string `koanf:"output" yaml:"output" json:"output"`

	Log       LogConfig         `koanf:"log" yaml:"log" json:"log"`
	Metrics   MetricsConfig     `koanf:"metrics" yaml:"metrics" json:"metrics"`
	TLS       TLSConfig         `koanf:"tls" yaml:"tls" json:"tls"`
	WebSocket WebSocketConfig   `koanf:"websocket" yaml:"websocket" json:"websocket"`
	Dispatch  DispatchConfig    `koanf:"dispatch" yaml:"dispatch" json:"dispatch"`
	History   HistoryConfig     `koanf:"history" yaml:"history" json:"history"`
	Keymap    map[string]string `koanf:"keymap" yaml:"keymap" json:"keymap"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level" json:"level"`
	Format string `koanf:"format" yaml:"format" json:"format"`
	// File enables rotated JSON logs in addition to stderr.
	File string `koanf:"file" yaml:"file,omitempty" json:"file,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address; empty disables the endpoint.
	Addr string `koanf:"addr" yaml:"addr,omitempty" json:"addr,omitempty"`
}

// TLSConfig controls wss:// trust.
type TLSConfig struct {
	CAFile string `koanf:"ca_file" yaml:"ca_file,omitempty" json:"ca_file,omitempty"`
}

// WebSocketConfig tunes the transport.
type WebSocketConfig struct {
	HandshakeTimeout Duration `koanf:"handshake_timeout" yaml:"handshake_timeout" json:"handshake_timeout"`
	WriteTimeout     Duration `koanf:"write_timeout" yaml:"write_timeout" json:"write_timeout"`
	CloseGracePeriod Duration `koanf:"close_grace_period" yaml:"close_grace_period" json:"close_grace_period"`
	SendQueueSize    int      `koanf:"send_queue_size" yaml:"send_queue_size" json:"send_queue_size"`
}

// DispatchConfig limits how fast held keys send commands.
type DispatchConfig struct {
	// Rate is commands per second; 0 disables limiting.
	Rate  float64 `koanf:"rate" yaml:"rate" json:"rate"`
	Burst int     `koanf:"burst" yaml:"burst" json:"burst"`
}

// HistoryConfig controls the REPL history file.
type HistoryConfig struct {
	File string `koanf:"file" yaml:"file,omitempty" json:"file,omitempty"`
	Size int    `koanf:"size" yaml:"size" json:"size"`
}

// Duration is a time.Duration written as "5s" in files and env.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server: "ws://localhost:8080",
		Output: "table",
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		WebSocket: WebSocketConfig{
			HandshakeTimeout: Duration(10 * time.Second),
			WriteTimeout:     Duration(5 * time.Second),
			CloseGracePeriod: Duration(2 * time.Second),
			SendQueueSize:    64,
		},
		Dispatch: DispatchConfig{
			Rate:  10,
			Burst: 3,
		},
		History: HistoryConfig{
			Size: 1000,
		},
		Keymap: map[string]string{
			"left":  "prev",
			"right": "next",
		},
	}
}

var (
	validOutputs    = []string{"table", "json", "yaml"}
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validLogFormats = []string{"console", "text", "json"}
)

// Validate checks values that cannot be corrected silently.
func (c *CLIConfig) Validate() error {
	if !slices.Contains(validOutputs, c.Output) {
		return fmt.Errorf("output: unsupported format %q (want table, json or yaml)", c.Output)
	}
	if !slices.Contains(validLogLevels, c.Log.Level) {
		return fmt.Errorf("log.level: unsupported level %q", c.Log.Level)
	}
	if !slices.Contains(validLogFormats, c.Log.Format) {
		return fmt.Errorf("log.format: unsupported format %q", c.Log.Format)
	}
	if c.Dispatch.Rate < 0 {
		return fmt.Errorf("dispatch.rate: must not be negative")
	}
	for key, payload := range c.Keymap {
		if payload == "" {
			return fmt.Errorf("keymap.%s: empty payload", key)
		}
	}
	return nil
}
