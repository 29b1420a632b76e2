package cmd

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pseudomuto/chdata/pkg/clickhouse"
	"github.com/pseudomuto/chdata/pkg/config"
	"github.com/pseudomuto/chdata/pkg/health"
	"github.com/pseudomuto/chdata/pkg/log"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 5 * time.Second

// healthCmd serves /healthz, /readyz and /metrics until the command is cancelled.
// Readiness pings ClickHouse; with the auto-configuration switched off the
// ClickHouse check always passes.
//
// Example usage:
//
//	chdata health --listen :8080 --slow 500ms
func healthCmd(cfg *config.Config, factory *clickhouse.Factory, reg *prometheus.Registry, version *Version) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Serve health, readiness and metrics endpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "address to listen on",
				Value: ":8080",
			},
			&cli.DurationFlag{
				Name:  "slow",
				Usage: "ping latency above which ClickHouse is reported degraded",
				Value: health.DefaultSlowThreshold,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "deadline of a single check",
				Value: health.DefaultTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var client *clickhouse.Client
			if cfg.Enabled() {
				c, err := connect(ctx, cfg, factory, false)
				if err != nil {
					return err
				}
				defer func() { _ = c.Close() }()
				client = c
			}

			manager := health.NewManager(version.Version, health.WithTimeout(cmd.Duration("timeout")))
			manager.RegisterChecker(health.NewClickHouseChecker(client, cmd.Duration("slow")))

			lis, err := net.Listen("tcp", cmd.String("listen"))
			if err != nil {
				return errors.Wrapf(err, "failed to listen on %s", cmd.String("listen"))
			}

			return serveHTTP(ctx, lis, health.Router(manager, reg))
		},
	}
}

func serveHTTP(ctx context.Context, lis net.Listener, h http.Handler) error {
	logger := log.WithComponent("health")
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", lis.Addr().String()).Msg("Serving health endpoints")
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "health server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shut down health server")
	}

	logger.Info().Msg("Health server stopped")
	return nil
}
