package clickhouse

import (
	"context"
	"math"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chdata/pkg/config"
	"github.com/pseudomuto/chdata/pkg/consts"
	"github.com/pseudomuto/chdata/pkg/log"
	"github.com/pseudomuto/chdata/pkg/metrics"
	"github.com/rs/zerolog"
)

// Server settings written by the factory
const (
	SettingMaxExecutionTime      = "max_execution_time"
	SettingSessionTimezone       = "session_timezone"
	SettingAsyncInsert           = "async_insert"
	SettingWaitForAsyncInsert    = "wait_for_async_insert"
	SettingEnableHTTPCompression = "enable_http_compression"
)

type (
	// Factory turns Properties into configured clients.
	Factory struct {
		props   config.Properties
		logger  zerolog.Logger
		metrics *metrics.Metrics
	}

	// FactoryOption customises a Factory.
	FactoryOption func(*Factory)
)

// WithLogger replaces the factory's logger. Clients built by the factory inherit it.
func WithLogger(l zerolog.Logger) FactoryOption {
	return func(f *Factory) { f.logger = l }
}

// WithMetrics records factory and client events in m.
func WithMetrics(m *metrics.Metrics) FactoryOption {
	return func(f *Factory) { f.metrics = m }
}

// NewFactory creates a Factory for props. The properties are copied, later
// changes to props do not affect the factory.
//
// Example:
//
//	cfg, err := config.LoadConfigFile("application.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clickhouse.NewFactory(cfg.Properties()).Connect(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
func NewFactory(props config.Properties, opts ...FactoryOption) *Factory {
	f := &Factory{
		props:  props.Clone(),
		logger: log.WithComponent("clickhouse"),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Properties returns a copy of the factory's properties.
func (f *Factory) Properties() config.Properties {
	return f.props.Clone()
}

// Options maps the properties onto driver options. Unset properties leave
// the driver defaults in place.
func (f *Factory) Options() (*clickhouse.Options, error) {
	p := &f.props

	if err := p.Validate(); err != nil {
		return nil, err
	}

	ep, err := parseEndpoint(p.Endpoint)
	if err != nil {
		return nil, err
	}

	opts := &clickhouse.Options{
		Protocol: ep.protocol,
		Addr:     ep.addrs,
		Auth: clickhouse.Auth{
			Database: p.DefaultDatabase,
			Username: p.Username,
			Password: p.Password,
		},
		Settings: clickhouse.Settings{},
	}

	if opts.Auth.Username == "" {
		opts.Auth.Username = consts.DefaultUsername
	}

	if ep.protocol == clickhouse.HTTP {
		opts.HttpUrlPath = ep.path
	}

	if err := f.applyHeaders(opts, ep); err != nil {
		return nil, err
	}

	f.applyTimeouts(opts)
	f.applyCompression(opts, ep)
	f.applyPool(opts)
	f.applySettings(opts, ep)

	if err := f.applyTLS(opts, ep); err != nil {
		return nil, err
	}

	f.applyNetwork(opts, ep)

	if f.logger.GetLevel() <= zerolog.TraceLevel {
		opts.Debug = true
		opts.Debugf = func(format string, v ...any) {
			f.logger.Trace().Msgf(format, v...)
		}
	}

	return opts, nil
}

// Build creates a client without contacting the server.
func (f *Factory) Build() (*Client, error) {
	f.logger.Debug().Interface("properties", f.props.Redacted()).Msg("Building client from properties")
	f.logger.Info().Str("endpoint", f.props.Endpoint).Msg("Initializing client")

	opts, err := f.Options()
	if err != nil {
		return nil, errors.Wrap(err, "failed to configure ClickHouse client")
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ClickHouse connection")
	}

	c := newClient(conn, opts, f.clientConfig())
	f.metrics.ClientInitialized(protocolName(opts.Protocol))
	f.logger.Info().
		Str("protocol", protocolName(opts.Protocol)).
		Strs("addr", opts.Addr).
		Msg("Successfully initialized client")

	return c, nil
}

// Connect builds a client and pings the server.
func (f *Factory) Connect(ctx context.Context) (*Client, error) {
	c, err := f.Build()
	if err != nil {
		return nil, err
	}

	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.warnUnsupportedSettings(ctx)
	return c, nil
}

func (f *Factory) clientConfig() clientConfig {
	cc := clientConfig{
		database:   f.props.DefaultDatabase,
		maxRetries: consts.DefaultMaxRetries,
		logger:     f.logger,
		metrics:    f.metrics,
	}

	if f.props.MaxRetries != nil {
		cc.maxRetries = *f.props.MaxRetries
	}

	if f.props.ConnectionRequestTimeout != nil {
		cc.requestTimeout = f.props.ConnectionRequestTimeout.Std()
	}

	return cc
}

func (f *Factory) applyHeaders(opts *clickhouse.Options, ep endpoint) error {
	p := &f.props

	if len(p.HTTPHeaders) > 0 {
		if ep.protocol != clickhouse.HTTP {
			f.logger.Warn().Msg("http-headers are ignored by the native protocol")
		} else {
			opts.HttpHeaders = make(map[string]string, len(p.HTTPHeaders))
			for k, v := range p.HTTPHeaders {
				opts.HttpHeaders[k] = v
			}
		}
	}

	if p.AccessToken == "" {
		return nil
	}

	if ep.protocol != clickhouse.HTTP {
		return errors.New("access-token requires an http(s) endpoint")
	}

	if opts.HttpHeaders == nil {
		opts.HttpHeaders = make(map[string]string, 1)
	}

	// bearer auth replaces the user credentials
	opts.HttpHeaders["Authorization"] = "Bearer " + p.AccessToken
	opts.Auth.Username, opts.Auth.Password = "", ""
	return nil
}

func (f *Factory) applyTimeouts(opts *clickhouse.Options) {
	p := &f.props

	if p.ConnectTimeout != nil {
		opts.DialTimeout = p.ConnectTimeout.Std()
	}

	if p.SocketTimeout != nil {
		opts.ReadTimeout = p.SocketTimeout.Std()
	}

	if p.ConnectionTTL != nil {
		opts.ConnMaxLifetime = p.ConnectionTTL.Std()
	}

	if p.ExecutionTimeout != nil {
		secs := int(math.Ceil(p.ExecutionTimeout.Std().Seconds()))
		opts.Settings[SettingMaxExecutionTime] = max(secs, 1)
	}
}

func (f *Factory) applyCompression(opts *clickhouse.Options, ep endpoint) {
	p := &f.props
	http := ep.protocol == clickhouse.HTTP

	switch {
	case isTrue(p.CompressClientRequest) && http:
		opts.Compression = &clickhouse.Compression{Method: clickhouse.CompressionGZIP}
	case isTrue(p.CompressClientRequest):
		opts.Compression = &clickhouse.Compression{Method: clickhouse.CompressionLZ4}
	case isTrue(p.UseHTTPCompression) && http:
		opts.Compression = &clickhouse.Compression{Method: clickhouse.CompressionGZIP}
	}

	if isTrue(p.CompressServerResponse) {
		if http {
			opts.Settings[SettingEnableHTTPCompression] = 1
		} else {
			f.logger.Debug().Msg("compress-server-response has no effect on the native protocol")
		}
	}

	if p.LZ4UncompressedBufferSize != nil {
		opts.MaxCompressionBuffer = *p.LZ4UncompressedBufferSize
	}
}

func (f *Factory) applyPool(opts *clickhouse.Options) {
	p := &f.props

	if p.EnableConnectionPool != nil && !*p.EnableConnectionPool {
		opts.MaxOpenConns = 1
		opts.MaxIdleConns = 1
	}

	if p.AllowBinaryReaderToReuseBuffers != nil {
		opts.FreeBufOnConnRelease = !*p.AllowBinaryReaderToReuseBuffers
	}

	if name := p.ConnectionReuseStrategy; name != "" {
		strategy, ok := reuseStrategy(name)
		if !ok {
			f.logger.Error().Str("strategy", name).Msg("Unknown connection-reuse-strategy, using the default")
		} else {
			opts.ConnOpenStrategy = strategy
		}
	}
}

func (f *Factory) applySettings(opts *clickhouse.Options, ep endpoint) {
	p := &f.props

	// server-time-zone is applied after use-time-zone and wins when both are set
	switch {
	case p.ServerTimeZone != "":
		opts.Settings[SettingSessionTimezone] = p.ServerTimeZone
	case p.UseTimeZone != "":
		opts.Settings[SettingSessionTimezone] = p.UseTimeZone
	}

	if isTrue(p.UseAsyncRequests) {
		opts.Settings[SettingAsyncInsert] = 1
		opts.Settings[SettingWaitForAsyncInsert] = 1
	}

	if first, ok := p.ServerSetting.First(); ok {
		opts.Settings[first.Name] = first.Value
		if len(p.ServerSetting) > 1 {
			f.logger.Warn().
				Str("applied", first.Name).
				Strs("ignored", p.ServerSetting.Names()[1:]).
				Msg("Only one server-setting is applied")
		}
	}

	if len(opts.Settings) == 0 {
		opts.Settings = nil
	}
}

func (f *Factory) applyTLS(opts *clickhouse.Options, ep endpoint) error {
	s, err := tlsSettings(&f.props, ep.secure)
	if err != nil || s == nil {
		return err
	}

	cfg, err := GetTLSConfig(*s)
	if err != nil {
		return err
	}

	if isTrue(f.props.UseSSLAuthentication) {
		// the certificate identifies the user
		opts.Auth.Password = ""
	}

	opts.TLS = cfg
	return nil
}

func (f *Factory) applyNetwork(opts *clickhouse.Options, ep endpoint) {
	p := &f.props

	if d := newDialer(p); d != nil {
		d.timeout = opts.DialTimeout
		if ep.protocol == clickhouse.Native {
			d.tls = opts.TLS
		}
		opts.DialContext = d.DialContext
	}

	// The driver builds its HTTP transport internally and only exposes the
	// dialer, so there is nowhere to install a cookie jar.
	if isTrue(p.HTTPCookiesEnabled) {
		f.logger.Warn().Str("protocol", protocolName(ep.protocol)).Msg("http-cookies-enabled is not supported by the driver, ignoring")
	}
}

func reuseStrategy(name string) (clickhouse.ConnOpenStrategy, bool) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_") {
	case "in_order", "fifo":
		return clickhouse.ConnOpenInOrder, true
	case "round_robin":
		return clickhouse.ConnOpenRoundRobin, true
	case "random", "lifo":
		return clickhouse.ConnOpenRandom, true
	}

	return clickhouse.ConnOpenInOrder, false
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
