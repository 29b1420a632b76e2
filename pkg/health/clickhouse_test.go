package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pseudomuto/chdata/pkg/clickhouse"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err   error
	delay time.Duration
}

func (f *fakePinger) Ping(context.Context) error {
	time.Sleep(f.delay)
	return f.err
}

func (f *fakePinger) Version(context.Context) (*clickhouse.VersionInfo, error) {
	return &clickhouse.VersionInfo{Major: 25, Minor: 7, Patch: 1}, nil
}

func TestClickHouseChecker(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		p := &fakePinger{}
		res := NewClickHouseChecker(p, 0).Check(context.Background())

		require.Equal(t, StatusHealthy, res.Status)
		require.Equal(t, "25.7.1", res.Details["version"])

		_, err := uuid.Parse(res.Details["query_id"])
		require.NoError(t, err)
	})

	t.Run("degraded when slow", func(t *testing.T) {
		p := &fakePinger{delay: 20 * time.Millisecond}
		res := NewClickHouseChecker(p, time.Millisecond).Check(context.Background())

		require.Equal(t, StatusDegraded, res.Status)
		require.Equal(t, "ping slower than 1ms", res.Message)
	})

	t.Run("unhealthy", func(t *testing.T) {
		p := &fakePinger{err: errors.New("connection refused")}
		res := NewClickHouseChecker(p, 0).Check(context.Background())

		require.Equal(t, StatusUnhealthy, res.Status)
		require.Equal(t, "connection refused", res.Error)
	})

	t.Run("disabled", func(t *testing.T) {
		var client *clickhouse.Client
		res := NewClickHouseChecker(client, 0).Check(context.Background())

		require.Equal(t, StatusHealthy, res.Status)
		require.Equal(t, "disabled", res.Message)
	})

	require.Equal(t, "clickhouse", NewClickHouseChecker(nil, 0).Name())
}
