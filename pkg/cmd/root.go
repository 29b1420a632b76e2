package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/pseudomuto/chdata/pkg/clickhouse"
	"github.com/pseudomuto/chdata/pkg/config"
	"github.com/pseudomuto/chdata/pkg/log"
	"github.com/pseudomuto/chdata/pkg/starter"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type (
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Ctx        context.Context
		Lifecycle  fx.Lifecycle
		Shutdowner fx.Shutdowner
		Version    *Version
	}

	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}
)

// Run creates the chdata root command from the commands group and runs it
// with the process arguments once the fx application has started. The
// application is shut down with exit code 1 when the command fails.
//
// Example usage:
//
//	fx.New(
//		fx.Supply(os.Args, ctx, &cmd.Version{Version: "v1.0.0"}),
//		config.Module,
//		metrics.Module,
//		cmd.Module,
//	).Run()
func Run(p Params) {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", p.Version.Version)
		fmt.Fprintln(cmd.Writer, "Commit:", p.Version.Commit)
		fmt.Fprintln(cmd.Writer, "Date:", p.Version.Timestamp)
	}

	app := &cli.Command{
		Name:  "chdata",
		Usage: "Inspect and exercise a ClickHouse client configuration",
		Description: `chdata builds a ClickHouse client from the spring.clickhouse-data
properties of an application file and the CLICKHOUSE_DATA_* environment,
and provides commands to inspect, test and monitor it.`,
		Version:  p.Version.Version,
		Commands: p.Commands,
	}

	logger := log.WithComponent("cli")

	p.Lifecycle.Append(fx.StartHook(func() {
		go func() {
			code := 0
			if err := app.Run(p.Ctx, p.Args); err != nil {
				logger.Error().Err(err).Msg("Error running command")
				code = 1
			}

			_ = p.Shutdowner.Shutdown(fx.ExitCode(code))
		}()
	}))
}

func output(cmd *cli.Command) io.Writer {
	return cmd.Root().Writer
}

// connect builds a client from the factory, failing when the
// auto-configuration is switched off.
func connect(ctx context.Context, cfg *config.Config, factory *clickhouse.Factory, ping bool) (*clickhouse.Client, error) {
	if !cfg.Enabled() {
		return nil, starter.ErrDisabled
	}

	if ping {
		return factory.Connect(ctx)
	}

	return factory.Build()
}
