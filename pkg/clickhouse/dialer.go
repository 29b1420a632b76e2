package clickhouse

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chdata/pkg/config"
)

// dialer opens TCP connections with the socket options from the properties.
type dialer struct {
	timeout   time.Duration
	keepAlive time.Duration
	rcvbuf    int
	sndbuf    int
	noDelay   *bool
	linger    *int

	// tls is set for the native protocol only; the driver skips its own TLS
	// setup when a DialContext is supplied. HTTP transports wrap the raw
	// connection themselves.
	tls *tls.Config
}

// newDialer returns nil when props carry no socket options.
func newDialer(props *config.Properties) *dialer {
	if props.SocketRcvbuf == nil && props.SocketSndbuf == nil &&
		props.SocketKeepAlive == nil && props.SocketTCPNoDelay == nil &&
		props.SocketLinger == nil && props.ClientNetworkBufferSize == nil &&
		props.KeepAliveTimeout == nil {
		return nil
	}

	d := &dialer{
		noDelay: props.SocketTCPNoDelay,
		linger:  props.SocketLinger,
	}

	if props.ClientNetworkBufferSize != nil {
		d.rcvbuf = *props.ClientNetworkBufferSize
		d.sndbuf = *props.ClientNetworkBufferSize
	}
	if props.SocketRcvbuf != nil {
		d.rcvbuf = int(*props.SocketRcvbuf)
	}
	if props.SocketSndbuf != nil {
		d.sndbuf = int(*props.SocketSndbuf)
	}

	if props.KeepAliveTimeout != nil {
		d.keepAlive = props.KeepAliveTimeout.Std()
	}
	if props.SocketKeepAlive != nil && !*props.SocketKeepAlive {
		d.keepAlive = -1
	}

	return d
}

// DialContext satisfies clickhouse.Options.DialContext.
func (d *dialer) DialContext(ctx context.Context, addr string) (net.Conn, error) {
	nd := &net.Dialer{Timeout: d.timeout, KeepAlive: d.keepAlive}

	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := d.apply(tcp); err != nil {
			_ = conn.Close()
			return nil, errors.Wrapf(err, "failed to set socket options on %s", addr)
		}
	}

	if d.tls == nil {
		return conn, nil
	}

	cfg := d.tls.Clone()
	if cfg.ServerName == "" {
		host, _, _ := net.SplitHostPort(addr)
		cfg.ServerName = host
	}

	tc := tls.Client(conn, cfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "TLS handshake with %s failed", addr)
	}

	return tc, nil
}

func (d *dialer) apply(c *net.TCPConn) error {
	if d.rcvbuf > 0 {
		if err := c.SetReadBuffer(d.rcvbuf); err != nil {
			return err
		}
	}

	if d.sndbuf > 0 {
		if err := c.SetWriteBuffer(d.sndbuf); err != nil {
			return err
		}
	}

	if d.noDelay != nil {
		if err := c.SetNoDelay(*d.noDelay); err != nil {
			return err
		}
	}

	if d.linger != nil {
		if err := c.SetLinger(*d.linger); err != nil {
			return err
		}
	}

	return nil
}
