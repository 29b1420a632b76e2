package starter_test

import (
	"context"
	"testing"
	"time"

	"github.com/pseudomuto/chdata/pkg/clickhouse"
	"github.com/pseudomuto/chdata/pkg/config"
	"github.com/pseudomuto/chdata/pkg/docker"
	"github.com/pseudomuto/chdata/pkg/metrics"
	"github.com/pseudomuto/chdata/pkg/starter"
	"github.com/pseudomuto/chdata/pkg/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

type event struct {
	ID   uint64    `ch:"id"`
	Name string    `ch:"name"`
	At   time.Time `ch:"at"`
}

func (event) TableName() string { return "events" }

type metric struct {
	Name  string  `ch:"name"`
	Value float64 `ch:"value"`
}

func unreachable() *config.Config {
	cfg := &config.Config{}
	cfg.Spring.ClickHouseData = config.Properties{
		Endpoint:        "http://127.0.0.1:1",
		DefaultDatabase: "analytics",
	}

	return cfg
}

func TestModule_EnabledByDefault(t *testing.T) {
	var (
		client  *clickhouse.Client
		factory *clickhouse.Factory
	)

	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(unreachable()),
		metrics.Module,
		starter.Module,
		fx.Populate(&client, &factory),
	)

	app.RequireStart()
	require.NotNil(t, client)
	require.Equal(t, "http://127.0.0.1:1", factory.Properties().Endpoint)

	c, err := starter.Require(client)
	require.NoError(t, err)
	require.Same(t, client, c)

	app.RequireStop()
	require.ErrorIs(t, client.Ping(context.Background()), clickhouse.ErrClosed)
}

func TestModule_Disabled(t *testing.T) {
	cfg := unreachable()
	enabled := false
	cfg.ClickHouseData.Enabled = &enabled

	var client *clickhouse.Client
	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(cfg),
		starter.Module,
		starter.Tables(event{}),
		fx.Populate(&client),
	)

	app.RequireStart().RequireStop()
	require.Nil(t, client)

	_, err := starter.Require(client)
	require.ErrorIs(t, err, starter.ErrDisabled)
}

func TestModule_InvalidProperties(t *testing.T) {
	app := fx.New(
		fx.NopLogger,
		fx.Supply(&config.Config{}),
		starter.Module,
		fx.Invoke(func(*clickhouse.Client) {}),
	)

	require.ErrorContains(t, app.Err(), "endpoint is required")
}

func TestModule_WithClient(t *testing.T) {
	own, err := clickhouse.NewFactory(config.Properties{Endpoint: "tcp://127.0.0.1:1"}).Build()
	require.NoError(t, err)

	var client *clickhouse.Client
	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(unreachable()),
		starter.Module,
		starter.WithClient(own),
		fx.Populate(&client),
	)

	app.RequireStart().RequireStop()
	require.Same(t, own, client)
	require.ErrorIs(t, own.Ping(context.Background()), clickhouse.ErrClosed)
}

func TestTables_Group(t *testing.T) {
	var got []starter.Entity

	app := fxtest.New(t,
		fx.NopLogger,
		starter.Tables(event{}),
		fx.Provide(starter.AsTable(func() metric { return metric{} })),
		fx.Invoke(func(p struct {
			fx.In

			Entities []starter.Entity `group:"clickhouse_tables"`
		},
		) {
			got = p.Entities
		}),
	)

	app.RequireStart().RequireStop()
	require.ElementsMatch(t, []starter.Entity{event{}, metric{}}, got)
}

func TestModule_RegisterFailsOnStart(t *testing.T) {
	var client *clickhouse.Client
	app := fx.New(
		fx.NopLogger,
		fx.Supply(unreachable()),
		starter.Module,
		starter.Tables(event{}),
		fx.Populate(&client),
	)
	require.NoError(t, app.Err())
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := app.Start(ctx)
	require.ErrorContains(t, err, "failed to register starter_test.event")
}

func TestModule_RegistersTables(t *testing.T) {
	props := testutil.ClickHouseProperties(t, docker.ProtocolHTTP, docker.DockerOptions{Database: "analytics"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	setup, err := clickhouse.NewFactory(props).Connect(ctx)
	require.NoError(t, err)
	require.NoError(t, setup.Exec(ctx, `
		CREATE TABLE analytics.events (
			id UInt64,
			name String,
			at DateTime,
			inserted_at DateTime DEFAULT now()
		)
		ENGINE = MergeTree()
		ORDER BY id
	`))
	require.NoError(t, setup.Close())

	cfg := &config.Config{}
	cfg.Spring.ClickHouseData = props

	var client *clickhouse.Client
	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(cfg),
		metrics.Module,
		starter.Module,
		starter.Tables(event{}),
		fx.Populate(&client),
	)

	app.RequireStart()
	defer app.RequireStop()

	b, err := client.Binding(event{})
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name", "at"}, b.Columns)
	require.Equal(t, []string{"inserted_at"}, b.Omitted)

	n, err := client.Insert(ctx, []event{{ID: 1, Name: "signup", At: time.Now().UTC().Truncate(time.Second)}})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
