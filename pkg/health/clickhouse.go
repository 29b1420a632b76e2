package health

import (
	"context"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/pseudomuto/chdata/pkg/clickhouse"
)

// DefaultSlowThreshold is the ping latency above which ClickHouse is reported degraded.
const DefaultSlowThreshold = time.Second

// Pinger is the part of *clickhouse.Client the ClickHouse check needs.
type Pinger interface {
	Ping(ctx context.Context) error
	Version(ctx context.Context) (*clickhouse.VersionInfo, error)
}

// ClickHouseChecker pings ClickHouse and reports its version.
type ClickHouseChecker struct {
	client Pinger
	slow   time.Duration
}

// NewClickHouseChecker creates a checker for client. A nil client (the
// auto-configuration is disabled) always reports healthy. slow <= 0 uses
// DefaultSlowThreshold.
func NewClickHouseChecker(client Pinger, slow time.Duration) *ClickHouseChecker {
	if slow <= 0 {
		slow = DefaultSlowThreshold
	}

	return &ClickHouseChecker{client: client, slow: slow}
}

func (c *ClickHouseChecker) Name() string {
	return "clickhouse"
}

func (c *ClickHouseChecker) Check(ctx context.Context) CheckResult {
	if c.client == nil || isNilClient(c.client) {
		return CheckResult{
			Status:  StatusHealthy,
			Message: "disabled",
		}
	}

	queryID := uuid.NewString()
	ctx = ch.Context(ctx, ch.WithQueryID(queryID))

	start := time.Now()
	if err := c.client.Ping(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Error:   err.Error(),
			Details: map[string]string{"query_id": queryID},
		}
	}
	latency := time.Since(start)

	res := CheckResult{
		Status:  StatusHealthy,
		Message: "ping ok",
		Details: map[string]string{
			"query_id": queryID,
			"latency":  latency.String(),
		},
	}

	if v, err := c.client.Version(ctx); err == nil {
		res.Details["version"] = v.String()
	}

	if latency > c.slow {
		res.Status = StatusDegraded
		res.Message = "ping slower than " + c.slow.String()
	}

	return res
}

func isNilClient(p Pinger) bool {
	c, ok := p.(*clickhouse.Client)
	return ok && c == nil
}
