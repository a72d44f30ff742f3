package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/remotectl/internal/cli/config"
	"github.com/yndnr/remotectl/internal/cli/output"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:  "init",
				Usage: "Write a default configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing file",
					},
				},
				Action: configInit,
			},
			{
				Name:   "path",
				Usage:  "Print the configuration file path",
				Action: configPath,
			},
		},
	}
}

func resolvedConfigPath(c *cli.Context) string {
	if p := c.String("config"); p != "" {
		return p
	}
	return config.DefaultConfigPath()
}

func configShow(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	// A config is nested, so table output falls back to YAML.
	format := output.FormatYAML
	if rt.Config.Output == string(output.FormatJSON) {
		format = output.FormatJSON
	}
	return output.NewFormatter(format).Format(outWriter(c), rt.Config)
}

func configInit(c *cli.Context) error {
	path := resolvedConfigPath(c)

	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	if err := config.Save(config.Default(), path); err != nil {
		return err
	}

	output.Success(outWriter(c), "wrote %s", path)
	return nil
}

func configPath(c *cli.Context) error {
	fmt.Fprintln(outWriter(c), resolvedConfigPath(c))
	return nil
}
