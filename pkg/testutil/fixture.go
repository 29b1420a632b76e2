// Package testutil holds helpers shared by chdata's tests: application file
// fixtures, ClickHouse containers and CLI command runners.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/chdata/pkg/config"
	"github.com/pseudomuto/chdata/pkg/consts"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// AppFixture is an application directory holding an application.yaml
type AppFixture struct {
	Dir    string
	Config *config.Config
	t      *testing.T
}

// TestApp creates an isolated temp directory with an application file for props.
func TestApp(t *testing.T, props config.Properties) *AppFixture {
	t.Helper()

	f := &AppFixture{
		Dir: t.TempDir(),
		t:   t,
	}

	f.Config = &config.Config{}
	f.Config.Spring.ClickHouseData = props
	f.write()

	return f
}

// Disabled switches the auto-configuration off.
func (f *AppFixture) Disabled() *AppFixture {
	enabled := false
	f.Config.ClickHouseData.Enabled = &enabled
	f.write()
	return f
}

// Path returns the application file path.
func (f *AppFixture) Path() string {
	return filepath.Join(f.Dir, consts.DefaultConfigFile)
}

// Setenv points CLICKHOUSE_DATA_CONFIG at the fixture for the rest of the test.
func (f *AppFixture) Setenv() *AppFixture {
	f.t.Setenv(consts.ConfigEnv, f.Path())
	return f
}

func (f *AppFixture) write() {
	f.t.Helper()

	data, err := yaml.Marshal(f.Config)
	require.NoError(f.t, err, "Failed to encode application config")
	require.NoError(f.t, os.WriteFile(f.Path(), data, consts.ModeFile), "Failed to write application config")
}

// UnsetEnv removes the variables for the duration of the test. The previous
// values are restored on cleanup.
func UnsetEnv(t *testing.T, keys ...string) {
	t.Helper()

	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}
