package clickhouse

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chdata/pkg/consts"
)

// ErrInvalidEndpoint is returned when the endpoint property cannot be parsed.
var ErrInvalidEndpoint = errors.New("invalid endpoint")

// endpoint is the parsed form of the endpoint property.
//
// Accepted forms:
//
//	http://host:8123/path     HTTP
//	https://host:8443         HTTP over TLS
//	tcp://host:9000           Native
//	clickhouse://host:9000    Native
//	host:9000                 Native
//	tcp://host?secure=true    Native over TLS
//
// Several hosts may be listed separated by commas ("h1:9000,h2:9000"); they
// are all used as addresses by the connection strategy.
type endpoint struct {
	protocol clickhouse.Protocol
	secure   bool
	addrs    []string
	path     string
}

func parseEndpoint(raw string) (endpoint, error) {
	var ep endpoint

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ep, errors.Wrap(ErrInvalidEndpoint, "endpoint is empty")
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		scheme, rest = "", raw
	}

	hosts, query := rest, ""
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		hosts, ep.path = rest[:i], rest[i:]
		if p, q, found := strings.Cut(ep.path, "?"); found {
			ep.path, query = p, q
		}
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		return ep, errors.Wrapf(ErrInvalidEndpoint, "bad query in %q", raw)
	}

	var port int
	switch strings.ToLower(scheme) {
	case "http":
		ep.protocol, port = clickhouse.HTTP, consts.DefaultHTTPPort
	case "https":
		ep.protocol, ep.secure, port = clickhouse.HTTP, true, consts.DefaultHTTPSPort
	case "", "tcp", "clickhouse":
		ep.protocol, port = clickhouse.Native, consts.DefaultNativePort
		if secure, _ := strconv.ParseBool(params.Get("secure")); secure {
			ep.secure, port = true, consts.DefaultNativeSecurePort
		}
	default:
		return ep, errors.Wrapf(ErrInvalidEndpoint, "unsupported scheme %q", scheme)
	}

	ep.path = strings.TrimRight(ep.path, "/")
	if ep.protocol == clickhouse.Native {
		// the native protocol has no notion of a path
		ep.path = ""
	}

	for _, h := range strings.Split(hosts, ",") {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}

		addr, err := withDefaultPort(h, port)
		if err != nil {
			return ep, errors.Wrapf(ErrInvalidEndpoint, "bad host %q", h)
		}
		ep.addrs = append(ep.addrs, addr)
	}

	if len(ep.addrs) == 0 {
		return ep, errors.Wrapf(ErrInvalidEndpoint, "no hosts in %q", raw)
	}

	return ep, nil
}

func withDefaultPort(host string, port int) (string, error) {
	if h, p, err := net.SplitHostPort(host); err == nil {
		if h == "" {
			return "", errors.New("missing host")
		}
		if _, err := strconv.ParseUint(p, 10, 16); err != nil {
			return "", err
		}
		return host, nil
	}

	if strings.ContainsAny(host, "[]") {
		host = strings.Trim(host, "[]")
		if net.ParseIP(host) == nil {
			return "", errors.New("bad IPv6 literal")
		}
	}

	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

func protocolName(p clickhouse.Protocol) string {
	if p == clickhouse.HTTP {
		return "http"
	}

	return "native"
}
