package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chdata/pkg/consts"
	"gopkg.in/yaml.v3"
)

type (
	// Switch holds the top-level `clickhouse-data` block that turns the
	// auto-configuration on or off.
	Switch struct {
		// Enabled toggles the ClickHouse client. A missing value means enabled.
		Enabled *bool `yaml:"enabled,omitempty"`

		// LogLevel is the zerolog level name for the process logger.
		LogLevel string `yaml:"log-level,omitempty"`

		// LogFormat is "json" (default) or "console".
		LogFormat string `yaml:"log-format,omitempty"`
	}

	// Spring mirrors the `spring` block of the application file.
	Spring struct {
		// ClickHouseData contains the client properties bound at `spring.clickhouse-data`
		ClickHouseData Properties `yaml:"clickhouse-data"`
	}

	// Config represents the application file as far as ClickHouse is concerned.
	//
	// A minimal application.yaml looks like:
	//
	//	clickhouse-data:
	//	  enabled: true
	//	  log-level: debug
	//	spring:
	//	  clickhouse-data:
	//	    endpoint: http://localhost:8123
	//	    username: default
	//	    connect-timeout: 5s
	Config struct {
		ClickHouseData Switch `yaml:"clickhouse-data,omitempty"`
		Spring         Spring `yaml:"spring"`
	}
)

// Enabled reports whether the ClickHouse client should be created.
// The switch defaults to true when the property is missing.
func (c *Config) Enabled() bool {
	if c == nil || c.ClickHouseData.Enabled == nil {
		return true
	}

	return *c.ClickHouseData.Enabled
}

// Properties returns the client properties bound at `spring.clickhouse-data`.
func (c *Config) Properties() Properties {
	return c.Spring.ClickHouseData
}

// LoadConfig parses an application file from the provided io.Reader.
//
// Empty input yields an empty configuration, which means "enabled, all client
// defaults". Unknown keys are ignored so the same file can carry settings for
// other parts of an application.
//
// Example:
//
//	cfg, err := config.LoadConfig(strings.NewReader(`
//	spring:
//	  clickhouse-data:
//	    endpoint: localhost:9000
//	`))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println(cfg.Properties().Endpoint)
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}

		return nil, errors.Wrap(err, "failed to unmarshal application config")
	}

	return &cfg, nil
}

// LoadConfigFile loads the application file at path. A file that does not exist
// is not an error: the defaults are returned instead, the same way an
// application without an application.yaml still gets a default client.
//
// Example:
//
//	cfg, err := config.LoadConfigFile("application.yaml")
//	if err != nil {
//		log.Fatal("Failed to load config:", err)
//	}
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}

		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// Load reads the application file named by $CLICKHOUSE_DATA_CONFIG (or
// application.yaml) and applies environment overrides on top of it.
func Load(lookup func(string) (string, bool)) (*Config, error) {
	path := consts.DefaultConfigFile
	if v, ok := lookup(consts.ConfigEnv); ok && v != "" {
		path = v
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	return cfg, nil
}
