package testutil

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/pseudomuto/chdata/pkg/config"
	"github.com/pseudomuto/chdata/pkg/docker"
	"github.com/stretchr/testify/require"
)

// SkipIfNoDocker skips the test if Docker is not available
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("Docker not available")
	}

	cmd := exec.CommandContext(t.Context(), "docker", "ps")
	if err := cmd.Run(); err != nil {
		t.Skip("Docker daemon not running")
	}
}

// StartClickHouse starts a ClickHouse container that is removed when the test
// ends. Tests are skipped in short mode or without Docker.
func StartClickHouse(t *testing.T, opts docker.DockerOptions) *docker.Container {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping Docker integration test in short mode")
	}
	SkipIfNoDocker(t)

	container := docker.NewWithOptions(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	require.NoError(t, container.Start(ctx), "Failed to start ClickHouse container")

	t.Cleanup(func() {
		_ = container.Stop(context.Background())
	})

	return container
}

// ClickHouseProperties starts a container and returns properties pointing at it.
func ClickHouseProperties(t *testing.T, protocol docker.Protocol, opts docker.DockerOptions) config.Properties {
	t.Helper()

	container := StartClickHouse(t, opts)

	props, err := container.Properties(t.Context(), protocol)
	require.NoError(t, err, "Failed to get container properties")
	return props
}
