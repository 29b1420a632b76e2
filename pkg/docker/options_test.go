package docker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/docker/api/types/mount"
	"github.com/stretchr/testify/require"
)

func TestDockerOptions_Defaults(t *testing.T) {
	var opts DockerOptions
	require.Equal(t, "clickhouse/clickhouse-server:25.7-alpine", opts.image())
	require.Equal(t, 5*time.Minute, opts.startupTimeout())

	opts = DockerOptions{Version: "24.8", StartupTimeout: time.Minute}
	require.Equal(t, "clickhouse/clickhouse-server:24.8-alpine", opts.image())
	require.Equal(t, time.Minute, opts.startupTimeout())
}

func TestProfileXML(t *testing.T) {
	got := profileXML(map[string]string{"max_threads": "2", "log_comment": "a<b"})
	require.Equal(t, `<clickhouse>
    <profiles>
        <default>
            <log_comment>a&lt;b</log_comment>
            <max_threads>2</max_threads>
        </default>
    </profiles>
</clickhouse>
`, got)
}

func TestContainer_Mounts(t *testing.T) {
	c := NewWithOptions(DockerOptions{
		ConfigDir: "testdata",
		Settings:  map[string]string{"max_threads": "2"},
	})

	mounts, err := c.mounts()
	require.NoError(t, err)
	require.Len(t, mounts, 2)

	abs, err := filepath.Abs("testdata")
	require.NoError(t, err)
	require.Equal(t, mount.Mount{Type: mount.TypeBind, Source: abs, Target: "/etc/clickhouse-server/config.d"}, mounts[0])

	require.Equal(t, "/etc/clickhouse-server/users.d", mounts[1].Target)
	require.True(t, mounts[1].ReadOnly)

	data, err := os.ReadFile(filepath.Join(mounts[1].Source, "profile.xml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "<max_threads>2</max_threads>")

	c.cleanup()
	require.NoDirExists(t, mounts[1].Source)

	mounts, err = New().mounts()
	require.NoError(t, err)
	require.Empty(t, mounts)
}
