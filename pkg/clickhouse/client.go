package clickhouse

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chdata/pkg/metrics"
	"github.com/pseudomuto/chdata/pkg/tables"
	"github.com/rs/zerolog"
)

// ErrClosed is returned by operations on a closed client.
var ErrClosed = errors.New("client is closed")

type (
	// Client is a configured ClickHouse connection pool together with the
	// entities registered against it. It is safe for concurrent use.
	Client struct {
		conn     driver.Conn
		opts     *clickhouse.Options
		cfg      clientConfig
		registry *tables.Registry

		closeOnce sync.Once
		closeErr  error
		closed    chan struct{}
	}

	clientConfig struct {
		database       string
		maxRetries     int
		requestTimeout time.Duration
		retryInterval  time.Duration
		logger         zerolog.Logger
		metrics        *metrics.Metrics
	}
)

func newClient(conn driver.Conn, opts *clickhouse.Options, cfg clientConfig) *Client {
	if cfg.retryInterval <= 0 {
		cfg.retryInterval = 100 * time.Millisecond
	}

	return &Client{
		conn:     conn,
		opts:     opts,
		cfg:      cfg,
		registry: tables.NewRegistry(),
		closed:   make(chan struct{}),
	}
}

// Conn returns the underlying driver connection.
func (c *Client) Conn() driver.Conn {
	return c.conn
}

// Options returns the driver options the client was opened with.
func (c *Client) Options() *clickhouse.Options {
	return c.opts
}

// Registry returns the bindings of the registered entities.
func (c *Client) Registry() *tables.Registry {
	return c.registry
}

// Ping checks the server is reachable, retrying up to max-retries times with
// exponential backoff.
func (c *Client) Ping(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}

	start := time.Now()
	attempt := 0

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.cfg.retryInterval
	eb.MaxElapsedTime = 0

	var b backoff.BackOff = eb
	b = backoff.WithMaxRetries(b, uint64(max(c.cfg.maxRetries, 0)))
	b = backoff.WithContext(b, ctx)

	err := backoff.RetryNotify(func() error {
		attempt++
		rctx, cancel := c.requestContext(ctx)
		defer cancel()

		return c.conn.Ping(rctx)
	}, b, func(err error, next time.Duration) {
		c.cfg.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("Ping failed, retrying")
	})

	c.cfg.metrics.ObservePing(time.Since(start), err)
	if err != nil {
		return errors.Wrapf(err, "failed to ping ClickHouse after %d attempt(s)", attempt)
	}

	return nil
}

// Exec runs a statement that returns no rows.
func (c *Client) Exec(ctx context.Context, query string, args ...any) error {
	if c.isClosed() {
		return ErrClosed
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	return errors.Wrap(c.conn.Exec(ctx, query, args...), "failed to execute statement")
}

// Query runs a query. The caller must close the returned rows. The
// connection-request-timeout does not apply since the rows outlive the call.
func (c *Client) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}

	rows, err := c.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run query")
	}

	return rows, nil
}

// Close releases the connection pool. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.closeErr = c.conn.Close()
		c.cfg.logger.Info().Msg("Client closed")
	})

	return c.closeErr
}

func (c *Client) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// requestContext bounds ctx by the connection-request-timeout, if any.
func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.requestTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.requestTimeout)
	}

	return context.WithCancel(ctx)
}

func elemType(v any) (reflect.Type, reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, rv, errors.New("rows must be a slice, got nil")
	}

	if rv.Kind() == reflect.Ptr && rv.Elem().Kind() == reflect.Slice {
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, rv, errors.Errorf("rows must be a slice, got %s", rv.Type())
	}

	t := rv.Type().Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t, rv, nil
}
