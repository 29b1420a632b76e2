// Package starter wires a ClickHouse client into an fx application.
//
// Including Module gives an application a *clickhouse.Factory built from the
// `spring.clickhouse-data` properties and a *clickhouse.Client, unless the
// `clickhouse-data.enabled` switch is false. Table entities contributed with
// AsTable or Tables are registered against the client when the application
// starts, and the client is closed when it stops.
//
//	app := fx.New(
//		config.Module,
//		metrics.Module,
//		starter.Module,
//		starter.Tables(PageView{}),
//		fx.Invoke(func(c *clickhouse.Client) { ... }),
//	)
//
// An application that builds its own client supplies it with WithClient; the
// auto-configured one is then never used, but entities are still registered
// against the supplied client.
package starter

import (
	"context"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chdata/pkg/clickhouse"
	"github.com/pseudomuto/chdata/pkg/config"
	"github.com/pseudomuto/chdata/pkg/consts"
	"github.com/pseudomuto/chdata/pkg/log"
	"github.com/pseudomuto/chdata/pkg/metrics"
	"go.uber.org/fx"
)

// TablesGroup is the fx value group holding table entities.
const TablesGroup = "clickhouse_tables"

// ErrDisabled is returned by Require when the auto-configuration is switched off.
var ErrDisabled = errors.New("clickhouse-data is disabled")

type (
	// Entity is a value contributed to TablesGroup.
	Entity any

	FactoryParams struct {
		fx.In

		Config  *config.Config
		Metrics *metrics.Metrics `optional:"true"`
	}

	ClientParams struct {
		fx.In

		Config  *config.Config
		Factory *clickhouse.Factory
	}

	hookParams struct {
		fx.In

		Lifecycle fx.Lifecycle
		Client    *clickhouse.Client `optional:"true"`
		Entities  []Entity           `group:"clickhouse_tables"`
	}
)

// Module provides *clickhouse.Factory and *clickhouse.Client and registers
// table entities on start.
var Module = fx.Module("clickhouse",
	fx.Provide(
		NewFactory,
		NewClient,
	),
	fx.Invoke(registerHooks),
)

// NewFactory builds the client factory from the application properties.
func NewFactory(p FactoryParams) *clickhouse.Factory {
	return clickhouse.NewFactory(
		p.Config.Properties(),
		clickhouse.WithLogger(log.WithComponent("clickhouse")),
		clickhouse.WithMetrics(p.Metrics),
	)
}

// NewClient builds the client, or returns nil when `clickhouse-data.enabled`
// is false. Building does not dial the server.
func NewClient(p ClientParams) (*clickhouse.Client, error) {
	logger := log.WithComponent("starter")

	if !p.Config.Enabled() {
		logger.Info().Str("property", consts.EnabledKey).Msg("ClickHouse auto-configuration disabled")
		return nil, nil
	}

	client, err := p.Factory.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ClickHouse client")
	}

	return client, nil
}

// WithClient replaces the auto-configured client with c.
func WithClient(c *clickhouse.Client) fx.Option {
	return fx.Replace(c)
}

// AsTable annotates an entity constructor so its result joins TablesGroup.
//
//	fx.Provide(starter.AsTable(func() PageView { return PageView{} }))
func AsTable(constructor any) any {
	return fx.Annotate(
		constructor,
		fx.As(new(Entity)),
		fx.ResultTags(`group:"`+TablesGroup+`"`),
	)
}

// Tables contributes entity values to TablesGroup.
func Tables(entities ...any) fx.Option {
	opts := make([]fx.Option, 0, len(entities))
	for _, e := range entities {
		opts = append(opts, fx.Provide(
			fx.Annotate(
				func() Entity { return e },
				fx.ResultTags(`group:"`+TablesGroup+`"`),
			),
		))
	}

	return fx.Options(opts...)
}

// Require returns c, or ErrDisabled when the auto-configuration provided no client.
func Require(c *clickhouse.Client) (*clickhouse.Client, error) {
	if c == nil {
		return nil, ErrDisabled
	}

	return c, nil
}

func registerHooks(p hookParams) {
	if p.Client == nil {
		return
	}

	logger := log.WithComponent("starter")

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if len(p.Entities) == 0 {
				return nil
			}

			logger.Debug().Int("count", len(p.Entities)).Msg("Start register clickhouse tables")

			entities := make([]any, len(p.Entities))
			for i, e := range p.Entities {
				entities[i] = e
			}

			if err := p.Client.Register(ctx, entities...); err != nil {
				return err
			}

			logger.Debug().Msg("End register clickhouse tables")
			return nil
		},
		OnStop: func(context.Context) error {
			return p.Client.Close()
		},
	})
}
