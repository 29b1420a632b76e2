package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pseudomuto/chdata/pkg/cmd"
	"github.com/pseudomuto/chdata/pkg/config"
	"github.com/pseudomuto/chdata/pkg/log"
	"github.com/pseudomuto/chdata/pkg/metrics"
	"go.uber.org/fx"
)

// NB: These are set by GoReleaser during a build.
var (
	version string
	commit  string
	date    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fx.New(
		log.FxOption(),
		fx.Supply(
			os.Args,
			&cmd.Version{
				Version:   version,
				Commit:    commit,
				Timestamp: date,
			},
		),
		fx.Provide(func() context.Context { return ctx }),
		config.Module,
		log.Module,
		metrics.Module,
		cmd.Module,
	).Run()
}
