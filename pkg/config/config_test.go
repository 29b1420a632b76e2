package config_test

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/pseudomuto/chdata/pkg/config"
	"github.com/pseudomuto/chdata/pkg/consts"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/application.yaml
var testConfigYAML string

func TestLoadConfig(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader(testConfigYAML))
		require.NoError(t, err)
		validateTestConfig(t, cfg)
	})

	t.Run("empty input uses defaults", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader(""))
		require.NoError(t, err)
		require.True(t, cfg.Enabled())
		require.Empty(t, cfg.Properties().Endpoint)
	})

	t.Run("unrelated keys", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader("other_key: value"))
		require.NoError(t, err)
		require.True(t, cfg.Enabled())
	})

	t.Run("disabled", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader("clickhouse-data:\n  enabled: false\n"))
		require.NoError(t, err)
		require.False(t, cfg.Enabled())
	})

	t.Run("error", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader("invalid: yaml: ["))
		require.Error(t, err)
		require.Nil(t, cfg)
		require.Contains(t, err.Error(), "failed to unmarshal application config")
	})

	t.Run("bad duration", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader("spring:\n  clickhouse-data:\n    connect-timeout: soon\n"))
		require.Error(t, err)
		require.Nil(t, cfg)
		require.Contains(t, err.Error(), `invalid duration: "soon"`)
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "application.yaml")
		require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), consts.ModeFile))

		cfg, err := LoadConfigFile(path)
		require.NoError(t, err)
		validateTestConfig(t, cfg)
	})

	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "nonexistent.yaml"))
		require.NoError(t, err)
		require.NotNil(t, cfg)
		require.True(t, cfg.Enabled())
	})

	t.Run("directory", func(t *testing.T) {
		cfg, err := LoadConfigFile(t.TempDir())
		require.Error(t, err)
		require.Nil(t, cfg)
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), consts.ModeFile))

	env := map[string]string{
		consts.ConfigEnv:           path,
		"CLICKHOUSE_DATA_USERNAME": "writer",
	}

	cfg, err := Load(lookupFrom(env))
	require.NoError(t, err)
	require.Equal(t, "writer", cfg.Properties().Username)
	require.Equal(t, "http://localhost:8123", cfg.Properties().Endpoint)
}

func TestConfig_Enabled(t *testing.T) {
	var nilCfg *Config
	require.True(t, nilCfg.Enabled())

	off := false
	require.False(t, (&Config{ClickHouseData: Switch{Enabled: &off}}).Enabled())
}

func validateTestConfig(t *testing.T, cfg *Config) {
	t.Helper()

	require.True(t, cfg.Enabled())
	require.Equal(t, "debug", cfg.ClickHouseData.LogLevel)
	require.Empty(t, cfg.ClickHouseData.LogFormat)

	p := cfg.Properties()
	require.Equal(t, "http://localhost:8123", p.Endpoint)
	require.Equal(t, "reader", p.Username)
	require.Equal(t, "s3cret", p.Password)
	require.Equal(t, "tok", p.AccessToken)
	require.True(t, *p.EnableConnectionPool)
	require.Nil(t, p.UseSSLAuthentication)
	require.Equal(t, 5*time.Second, p.ConnectTimeout.Std())
	require.Equal(t, time.Minute, p.SocketTimeout.Std())
	require.Equal(t, 24*time.Hour, p.ConnectionTTL.Std())
	require.Equal(t, 1500*time.Millisecond, p.ExecutionTimeout.Std())
	require.Nil(t, p.KeepAliveTimeout)
	require.Equal(t, int64(65536), *p.SocketRcvbuf)
	require.True(t, *p.SocketTCPNoDelay)
	require.Equal(t, 3, *p.SocketLinger)
	require.True(t, *p.CompressClientRequest)
	require.Equal(t, "analytics", p.DefaultDatabase)
	require.Equal(t, map[string]string{"X-Team": "data"}, p.HTTPHeaders)
	require.Equal(t, "UTC", p.UseTimeZone)
	require.Equal(t, 2, *p.MaxRetries)
	require.Equal(t, "round_robin", p.ConnectionReuseStrategy)
	require.Equal(t, Settings{{Name: "max_threads", Value: "4"}}, p.ServerSetting)
}

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}
