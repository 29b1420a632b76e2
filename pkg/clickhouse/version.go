package clickhouse

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

// settingsSince holds the first server release that understands a setting the
// factory may write. Settings not listed are assumed to be available.
var settingsSince = map[string]string{
	"session_timezone":      "v23.6.0",
	"async_insert":          "v21.11.0",
	"wait_for_async_insert": "v21.11.0",
}

// VersionInfo is the server version reported by `SELECT version()`.
type VersionInfo struct {
	Major int
	Minor int
	Patch int
	Build int
	Raw   string
}

// String returns the version as "major.minor.patch".
func (v VersionInfo) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// IsAtLeast reports whether the server is major.minor or newer.
func (v VersionInfo) IsAtLeast(major, minor int) bool {
	return semver.Compare(v.canonical(), fmt.Sprintf("v%d.%d.0", major, minor)) >= 0
}

// Supports reports whether the server understands the given setting.
func (v VersionInfo) Supports(setting string) bool {
	since, ok := settingsSince[setting]
	if !ok {
		return true
	}

	return semver.Compare(v.canonical(), since) >= 0
}

// SupportsSessionTimezone reports whether use-time-zone can be honoured.
func (v VersionInfo) SupportsSessionTimezone() bool {
	return v.Supports("session_timezone")
}

// Unsupported returns the sorted names of settings the server would reject.
func (v VersionInfo) Unsupported(settings clickhouse.Settings) []string {
	var out []string
	for name := range settings {
		if !v.Supports(name) {
			out = append(out, name)
		}
	}

	slices.Sort(out)
	return out
}

func (v VersionInfo) canonical() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Version queries and parses the server version.
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	var raw string
	if err := c.conn.QueryRow(ctx, "SELECT version()").Scan(&raw); err != nil {
		return nil, errors.Wrap(err, "failed to query ClickHouse version")
	}

	v, err := parseVersion(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse ClickHouse version: %s", raw)
	}

	return v, nil
}

// warnUnsupportedSettings logs the configured settings the server is too old for.
// Version lookup failures are ignored; the settings then fail on first use.
func (c *Client) warnUnsupportedSettings(ctx context.Context) {
	if c.opts == nil || len(c.opts.Settings) == 0 {
		return
	}

	v, err := c.Version(ctx)
	if err != nil {
		return
	}

	for _, name := range v.Unsupported(c.opts.Settings) {
		c.cfg.logger.Warn().
			Str("setting", name).
			Str("server_version", v.String()).
			Msg("Server does not support configured setting")
	}
}

// parseVersion accepts the forms ClickHouse reports, e.g. "25.7.1.3997",
// "22.8.2.11-testing" or "21.10.3.9 (official build)". Missing components are zero.
func parseVersion(raw string) (*VersionInfo, error) {
	head, _, _ := strings.Cut(strings.TrimSpace(raw), " ")
	head, _, _ = strings.Cut(head, "-")

	parts := strings.Split(head, ".")
	if len(parts) < 2 {
		return nil, errors.Errorf("invalid version format: %q", raw)
	}

	var nums [4]int
	for i, p := range parts[:min(len(parts), len(nums))] {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, errors.Errorf("invalid version component %q in %q", p, raw)
		}
		nums[i] = n
	}

	return &VersionInfo{
		Major: nums[0],
		Minor: nums[1],
		Patch: nums[2],
		Build: nums[3],
		Raw:   raw,
	}, nil
}
