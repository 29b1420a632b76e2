package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chdata/pkg/config"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// configCmd prints the effective application config as YAML: the file with
// environment overrides applied and secrets masked.
//
// Example usage:
//
//	chdata config
//	chdata config --validate
func configCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective ClickHouse properties",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "validate",
				Usage: "fail when the properties cannot build a client",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			props := cfg.Properties()
			if cmd.Bool("validate") {
				if err := props.Validate(); err != nil {
					return err
				}
			}

			out := *cfg
			out.Spring.ClickHouseData = props.Redacted()

			data, err := yaml.Marshal(&out)
			if err != nil {
				return errors.Wrap(err, "failed to encode config")
			}

			_, err = fmt.Fprint(output(cmd), string(data))
			return err
		},
	}
}
