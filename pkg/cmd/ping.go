package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pseudomuto/chdata/pkg/clickhouse"
	"github.com/pseudomuto/chdata/pkg/config"
	"github.com/urfave/cli/v3"
)

// ping connects to ClickHouse with the configured retries and prints the
// server version and round-trip time.
//
// Example usage:
//
//	chdata ping
func ping(cfg *config.Config, factory *clickhouse.Factory) *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "Connect to ClickHouse and print the server version",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			start := time.Now()

			client, err := connect(ctx, cfg, factory, true)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			elapsed := time.Since(start)

			v, err := client.Version(ctx)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(output(cmd), "Connected to %s (ClickHouse %s) in %s\n",
				factory.Properties().Endpoint, v, elapsed.Round(time.Millisecond))
			return err
		},
	}
}
