package docker

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chdata/pkg/config"
	"github.com/pseudomuto/chdata/pkg/consts"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/wait"
)

type (
	// DockerOptions represents options for running ClickHouse in Docker
	DockerOptions struct {
		// Version is the ClickHouse version to run (default: consts.DefaultClickHouseVersion)
		Version string

		// ConfigDir is the optional ClickHouse config directory path to mount (relative paths will be converted to absolute)
		ConfigDir string

		// Database is created on start and used as the default database of Properties
		Database string

		// Password for the default user. Empty means no password.
		Password string

		// Settings are written to the default user profile, e.g. {"max_threads": "2"}
		Settings map[string]string

		// StartupTimeout bounds waiting for the server to answer /ping (default 5m)
		StartupTimeout time.Duration
	}

	// Container manages a throwaway ClickHouse server
	Container struct {
		options   DockerOptions
		container *clickhouse.ClickHouseContainer
		usersDir  string
	}
)

// New creates a new Docker container with default options
func New() *Container {
	return NewWithOptions(DockerOptions{})
}

// NewWithOptions creates a new Docker container with custom options
//
// Example:
//
//	container := docker.NewWithOptions(docker.DockerOptions{
//		Version:  "25.7",
//		Database: "analytics",
//	})
//
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer container.Stop(ctx)
//
//	props, _ := container.Properties(ctx, docker.ProtocolHTTP)
//	client, _ := clickhouse.NewFactory(props).Connect(ctx)
func NewWithOptions(opts DockerOptions) *Container {
	return &Container{
		options: opts,
	}
}

// Start starts a ClickHouse Docker container with the configured version
func (c *Container) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	mounts, err := c.mounts()
	if err != nil {
		return err
	}

	customizers := []testcontainers.ContainerCustomizer{
		clickhouse.WithUsername(consts.DefaultUsername),
		clickhouse.WithPassword(c.options.Password),
		testcontainers.WithEnv(map[string]string{"CLICKHOUSE_DEFAULT_ACCESS_MANAGEMENT": "1"}),
		testcontainers.WithWaitStrategyAndDeadline(c.options.startupTimeout(), pingStrategy()),
	}

	if c.options.Database != "" {
		customizers = append(customizers, clickhouse.WithDatabase(c.options.Database))
	}

	if len(mounts) > 0 {
		customizers = append(customizers, testcontainers.WithHostConfigModifier(func(hc *container.HostConfig) {
			hc.Mounts = append(hc.Mounts, mounts...)
		}))
	}

	ch, err := clickhouse.Run(ctx, c.options.image(), customizers...)
	if err != nil {
		c.cleanup()
		return errors.Wrap(err, "failed to start ClickHouse container")
	}

	c.container = ch
	return nil
}

// mounts binds ConfigDir and a generated users.d profile into the container.
func (c *Container) mounts() ([]mount.Mount, error) {
	var out []mount.Mount

	if c.options.ConfigDir != "" {
		dir, err := filepath.Abs(c.options.ConfigDir)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get absolute path for ConfigDir: %s", c.options.ConfigDir)
		}

		out = append(out, mount.Mount{Type: mount.TypeBind, Source: dir, Target: "/etc/clickhouse-server/config.d"})
	}

	if len(c.options.Settings) > 0 {
		dir, err := os.MkdirTemp("", "chdata-users-*")
		if err != nil {
			return nil, errors.Wrap(err, "failed to create users.d directory")
		}

		path := filepath.Join(dir, "profile.xml")
		if err := os.WriteFile(path, []byte(profileXML(c.options.Settings)), consts.ModeFile); err != nil {
			_ = os.RemoveAll(dir)
			return nil, errors.Wrapf(err, "failed to write %s", path)
		}

		c.usersDir = dir
		out = append(out, mount.Mount{Type: mount.TypeBind, Source: dir, Target: "/etc/clickhouse-server/users.d", ReadOnly: true})
	}

	return out, nil
}

func (c *Container) cleanup() {
	if c.usersDir != "" {
		_ = os.RemoveAll(c.usersDir)
		c.usersDir = ""
	}
}

// Stop stops and removes the ClickHouse Docker container
func (c *Container) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil
	}

	err := c.container.Terminate(ctx)
	c.container = nil
	c.cleanup()

	if err != nil {
		return errors.Wrap(err, "failed to stop ClickHouse container")
	}

	return nil
}

// Endpoint returns the endpoint property value for reaching the container
// over the given protocol.
func (c *Container) Endpoint(ctx context.Context, protocol Protocol) (string, error) {
	if c.container == nil {
		return "", errors.New("container is not running")
	}

	host, err := c.container.Host(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to get container host")
	}

	port, err := c.container.MappedPort(ctx, protocol.port())
	if err != nil {
		return "", errors.Wrap(err, "failed to get container port")
	}

	return fmt.Sprintf("%s://%s:%s", protocol.scheme(), host, port.Port()), nil
}

// Properties returns client properties pointing at the container.
func (c *Container) Properties(ctx context.Context, protocol Protocol) (config.Properties, error) {
	endpoint, err := c.Endpoint(ctx, protocol)
	if err != nil {
		return config.Properties{}, err
	}

	retries := 0
	return config.Properties{
		Endpoint:        endpoint,
		Username:        consts.DefaultUsername,
		Password:        c.options.Password,
		DefaultDatabase: c.options.Database,
		MaxRetries:      &retries,
	}, nil
}

// IsRunning returns true if the container is currently running
func (c *Container) IsRunning() bool {
	return c.container != nil
}

// Protocol selects the port a client connects to.
type Protocol int

const (
	ProtocolNative Protocol = iota
	ProtocolHTTP
)

func (p Protocol) port() nat.Port {
	if p == ProtocolHTTP {
		return nat.Port(fmt.Sprintf("%d/tcp", consts.DefaultHTTPPort))
	}

	return nat.Port(fmt.Sprintf("%d/tcp", consts.DefaultNativePort))
}

func (p Protocol) scheme() string {
	if p == ProtocolHTTP {
		return "http"
	}

	return "tcp"
}

func (o DockerOptions) image() string {
	version := o.Version
	if version == "" {
		version = consts.DefaultClickHouseVersion
	}

	return fmt.Sprintf("clickhouse/clickhouse-server:%s-alpine", version)
}

func (o DockerOptions) startupTimeout() time.Duration {
	if o.StartupTimeout > 0 {
		return o.StartupTimeout
	}

	return 5 * time.Minute
}

// pingStrategy waits until the HTTP interface answers /ping with "Ok.".
func pingStrategy() wait.Strategy {
	return wait.ForHTTP("/ping").
		WithPort(ProtocolHTTP.port()).
		WithResponseMatcher(func(body io.Reader) bool {
			b, err := io.ReadAll(body)
			return err == nil && strings.TrimSpace(string(b)) == "Ok."
		})
}

// profileXML renders settings as the default profile of a users.d file.
func profileXML(settings map[string]string) string {
	var sb strings.Builder
	sb.WriteString("<clickhouse>\n    <profiles>\n        <default>\n")

	for _, name := range slices.Sorted(maps.Keys(settings)) {
		var value strings.Builder
		_ = xml.EscapeText(&value, []byte(settings[name]))
		fmt.Fprintf(&sb, "            <%s>%s</%s>\n", name, value.String(), name)
	}

	sb.WriteString("        </default>\n    </profiles>\n</clickhouse>\n")
	return sb.String()
}
