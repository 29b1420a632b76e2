package config

import (
	"os"

	"go.uber.org/fx"
)

// Module provides the application *Config, read from $CLICKHOUSE_DATA_CONFIG
// (default application.yaml) with environment overrides applied. A missing file
// is fine: the defaults plus environment are used.
var Module = fx.Module("config", fx.Provide(
	func() (*Config, error) {
		return Load(os.LookupEnv)
	},
))
