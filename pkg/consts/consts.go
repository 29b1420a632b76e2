package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)
)

const (
	// EnabledKey is the property that switches the ClickHouse auto-configuration on or off.
	// A missing value means enabled.
	EnabledKey = "clickhouse-data.enabled"

	// PropertiesPrefix is the key under which client properties live in the application file
	PropertiesPrefix = "spring.clickhouse-data"

	// EnvPrefix is prepended to upper-snake property keys to build environment variable names
	EnvPrefix = "CLICKHOUSE_DATA_"

	// ConfigEnv names the environment variable holding the application file path
	ConfigEnv = "CLICKHOUSE_DATA_CONFIG"

	// DefaultConfigFile is the application file loaded when ConfigEnv is not set
	DefaultConfigFile = "application.yaml"
)

const (
	// DefaultUsername is used when no username is configured
	DefaultUsername = "default"

	// DefaultNativePort is the ClickHouse native protocol port
	DefaultNativePort = 9000

	// DefaultNativeSecurePort is the ClickHouse native protocol port over TLS
	DefaultNativeSecurePort = 9440

	// DefaultHTTPPort is the ClickHouse HTTP interface port
	DefaultHTTPPort = 8123

	// DefaultHTTPSPort is the ClickHouse HTTPS interface port
	DefaultHTTPSPort = 8443

	// DefaultMaxRetries is the number of ping retries when max-retries is not set
	DefaultMaxRetries = 3

	// DefaultClickHouseVersion is the server image used by integration tests
	DefaultClickHouseVersion = "25.7"
)
