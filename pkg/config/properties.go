package config

import (
	"slices"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chdata/pkg/consts"
)

const redacted = "******"

// Properties are the general settings used to build a ClickHouse client.
//
// Every field is optional. Nil pointers and empty strings leave the client
// default in place, so only the settings an application cares about need to
// appear in its application file.
type Properties struct {
	// General connection settings
	Endpoint    string `yaml:"endpoint,omitempty"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	AccessToken string `yaml:"access-token,omitempty"`

	// SSL and pool connections
	UseSSLAuthentication *bool `yaml:"use-ssl-authentication,omitempty"`
	EnableConnectionPool *bool `yaml:"enable-connection-pool,omitempty"`

	// Timeouts, e.g. "5s", "1m"
	ConnectTimeout           *Duration `yaml:"connect-timeout,omitempty"`
	ConnectionRequestTimeout *Duration `yaml:"connection-request-timeout,omitempty"`
	SocketTimeout            *Duration `yaml:"socket-timeout,omitempty"`
	ConnectionTTL            *Duration `yaml:"connection-ttl,omitempty"`
	KeepAliveTimeout         *Duration `yaml:"keep-alive-timeout,omitempty"`
	ExecutionTimeout         *Duration `yaml:"execution-timeout,omitempty"`

	// Socket parameters
	SocketRcvbuf     *int64 `yaml:"socket-rcvbuf,omitempty"`
	SocketSndbuf     *int64 `yaml:"socket-sndbuf,omitempty"`
	SocketKeepAlive  *bool  `yaml:"socket-keep-alive,omitempty"`
	SocketTCPNoDelay *bool  `yaml:"socket-tcp-no-delay,omitempty"`
	SocketLinger     *int   `yaml:"socket-linger,omitempty"`

	// Compression
	CompressClientRequest     *bool `yaml:"compress-client-request,omitempty"`
	CompressServerResponse    *bool `yaml:"compress-server-response,omitempty"`
	UseHTTPCompression        *bool `yaml:"use-http-compression,omitempty"`
	LZ4UncompressedBufferSize *int  `yaml:"lz4-uncompressed-buffer-size,omitempty"`

	DefaultDatabase string `yaml:"default-database,omitempty"`

	// HTTP
	HTTPCookiesEnabled *bool             `yaml:"http-cookies-enabled,omitempty"`
	HTTPHeaders        map[string]string `yaml:"http-headers,omitempty"`

	// SSL. Trust stores and certificates are PEM files.
	SSLTrustStorePath     string `yaml:"ssl-trust-store-path,omitempty"`
	SSLTrustStorePassword string `yaml:"ssl-trust-store-password,omitempty"`
	SSLTrustStoreType     string `yaml:"ssl-trust-store-type,omitempty"`
	RootCertificate       string `yaml:"root-certificate,omitempty"`
	ClientCertificate     string `yaml:"client-certificate,omitempty"`
	ClientKey             string `yaml:"client-key,omitempty"`

	// Time zones
	UseServerTimeZone *bool  `yaml:"use-server-time-zone,omitempty"`
	UseTimeZone       string `yaml:"use-time-zone,omitempty"`
	ServerTimeZone    string `yaml:"server-time-zone,omitempty"`

	// Async requests and buffers
	UseAsyncRequests        *bool `yaml:"use-async-requests,omitempty"`
	ClientNetworkBufferSize *int  `yaml:"client-network-buffer-size,omitempty"`

	// Retries
	MaxRetries                      *int  `yaml:"max-retries,omitempty"`
	AllowBinaryReaderToReuseBuffers *bool `yaml:"allow-binary-reader-to-reuse-buffers,omitempty"`

	// ConnectionReuseStrategy names how connections are picked from the
	// configured endpoints: in_order (fifo), round_robin or random (lifo).
	ConnectionReuseStrategy string `yaml:"connection-reuse-strategy,omitempty"`

	// ServerSetting holds a server setting to send with every query.
	// Only the first declared entry is used.
	ServerSetting Settings `yaml:"server-setting,omitempty"`
}

// Clone returns a deep copy of p. Maps and pointer fields are not shared.
func (p Properties) Clone() Properties {
	var out Properties
	// copier only fails on mismatched kinds, which cannot happen for the same type
	_ = copier.CopyWithOption(&out, &p, copier.Option{DeepCopy: true})

	// copier allocates empty collections for nil ones
	if p.HTTPHeaders == nil {
		out.HTTPHeaders = nil
	}
	if p.ServerSetting == nil {
		out.ServerSetting = nil
	}

	return out
}

// Redacted returns a copy of p that is safe to log: secrets are masked.
func (p Properties) Redacted() Properties {
	out := p.Clone()
	for _, s := range []*string{&out.Password, &out.AccessToken, &out.SSLTrustStorePassword} {
		if *s != "" {
			*s = redacted
		}
	}

	return out
}

// Validate checks the properties for values the client cannot work with.
func (p *Properties) Validate() error {
	var problems []string

	if strings.TrimSpace(p.Endpoint) == "" {
		problems = append(problems, "endpoint is required")
	}

	if p.SocketRcvbuf != nil && *p.SocketRcvbuf < 0 {
		problems = append(problems, "socket-rcvbuf must not be negative")
	}

	if p.SocketSndbuf != nil && *p.SocketSndbuf < 0 {
		problems = append(problems, "socket-sndbuf must not be negative")
	}

	if p.ClientNetworkBufferSize != nil && *p.ClientNetworkBufferSize < 0 {
		problems = append(problems, "client-network-buffer-size must not be negative")
	}

	if p.MaxRetries != nil && *p.MaxRetries < 0 {
		problems = append(problems, "max-retries must not be negative")
	}

	if (p.ClientCertificate == "") != (p.ClientKey == "") {
		problems = append(problems, "client-certificate and client-key must be set together")
	}

	for name, d := range map[string]*Duration{
		"connect-timeout":            p.ConnectTimeout,
		"connection-request-timeout": p.ConnectionRequestTimeout,
		"socket-timeout":             p.SocketTimeout,
		"connection-ttl":             p.ConnectionTTL,
		"keep-alive-timeout":         p.KeepAliveTimeout,
		"execution-timeout":          p.ExecutionTimeout,
	} {
		if d != nil && *d < 0 {
			problems = append(problems, name+" must not be negative")
		}
	}

	if len(problems) == 0 {
		return nil
	}

	// map iteration above makes ordering unstable
	slices.Sort(problems)
	return errors.Errorf("invalid %s properties: %s", consts.PropertiesPrefix, strings.Join(problems, "; "))
}
