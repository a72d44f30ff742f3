package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/remotectl/internal/infra/confloader"
	"github.com/yndnr/remotectl/internal/telemetry/logger"
)

// DefaultDir returns ~/.remotectl.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".remotectl"
	}
	return filepath.Join(home, ".remotectl")
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), "cli.yaml")
}

// DefaultHistoryPath returns the default REPL history path.
func DefaultHistoryPath() string {
	return filepath.Join(DefaultDir(), "history")
}

// Load reads the config file at path (the default path when empty),
// applies REMOTECTL_* environment variables and then flags, which are
// keyed by dotted path ("log.level").
func Load(path string, flags map[string]any) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	opts := []confloader.Option{confloader.WithFlags(flags)}
	if _, err := os.Stat(path); err == nil {
		opts = append(opts, confloader.WithConfigFile(path))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat config: %w", err)
	}

	cfg := Default()
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if cfg.History.File == "" {
		cfg.History.File = DefaultHistoryPath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML with owner-only permissions.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Watch calls apply with a freshly loaded config each time the file at
// path changes. Reloads that fail validation are logged and skipped.
// The caller stops the returned watcher.
func Watch(path string, flags map[string]any, l logger.Logger, apply func(*CLIConfig)) (*confloader.Watcher, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(l))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := Load(path, flags)
		if err != nil {
			l.Warn("config reload failed", "path", path, "error", err)
			return
		}
		l.Info("config reloaded", "path", path)
		apply(cfg)
	})
	w.StartAsync()

	return w, nil
}
