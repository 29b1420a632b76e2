package docker_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pseudomuto/chdata/pkg/clickhouse"
	"github.com/pseudomuto/chdata/pkg/consts"
	"github.com/pseudomuto/chdata/pkg/docker"
	"github.com/pseudomuto/chdata/pkg/testutil"
	"github.com/stretchr/testify/require"
)

const displayNameConfig = `<?xml version="1.0"?>
<clickhouse>
    <logger>
        <level>warning</level>
        <console>true</console>
    </logger>
    <display_name>chdata-test</display_name>
</clickhouse>`

func TestContainer_NotRunning(t *testing.T) {
	container := docker.New()
	ctx := context.Background()

	require.False(t, container.IsRunning())
	require.NoError(t, container.Stop(ctx))

	_, err := container.Endpoint(ctx, docker.ProtocolHTTP)
	require.ErrorContains(t, err, "container is not running")

	_, err = container.Properties(ctx, docker.ProtocolNative)
	require.ErrorContains(t, err, "container is not running")
}

func TestContainer_StartStop(t *testing.T) {
	container := testutil.StartClickHouse(t, docker.DockerOptions{Database: "analytics"})
	require.True(t, container.IsRunning())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	require.ErrorContains(t, container.Start(ctx), "container is already running")

	for _, protocol := range []docker.Protocol{docker.ProtocolNative, docker.ProtocolHTTP} {
		props, err := container.Properties(ctx, protocol)
		require.NoError(t, err)
		require.Equal(t, consts.DefaultUsername, props.Username)
		require.Equal(t, "analytics", props.DefaultDatabase)

		client, err := clickhouse.NewFactory(props).Connect(ctx)
		require.NoError(t, err)
		require.NoError(t, client.Close())
	}

	endpoint, err := container.Endpoint(ctx, docker.ProtocolHTTP)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(endpoint, "http://"), endpoint)

	require.NoError(t, container.Stop(ctx))
	require.False(t, container.IsRunning())
}

func TestContainer_ConfigDir(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config.d")
	require.NoError(t, os.MkdirAll(configDir, consts.ModeDir))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "display.xml"), []byte(displayNameConfig), consts.ModeFile))

	props := testutil.ClickHouseProperties(t, docker.ProtocolNative, docker.DockerOptions{ConfigDir: configDir})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := clickhouse.NewFactory(props).Connect(ctx)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	var name string
	require.NoError(t, client.Conn().QueryRow(ctx, "SELECT displayName()").Scan(&name))
	require.Equal(t, "chdata-test", name)
}

func TestContainer_PasswordAndSettings(t *testing.T) {
	container := testutil.StartClickHouse(t, docker.DockerOptions{
		Password: "s3cret",
		Settings: map[string]string{"log_comment": "chdata"},
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	props, err := container.Properties(ctx, docker.ProtocolHTTP)
	require.NoError(t, err)
	require.Equal(t, "s3cret", props.Password)

	client, err := clickhouse.NewFactory(props).Connect(ctx)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	var comment string
	require.NoError(t, client.Conn().QueryRow(ctx, "SELECT value FROM system.settings WHERE name = 'log_comment'").Scan(&comment))
	require.Equal(t, "chdata", comment)

	props.Password = ""
	_, err = clickhouse.NewFactory(props).Connect(ctx)
	require.Error(t, err)
}
