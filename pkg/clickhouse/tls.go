package clickhouse

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chdata/pkg/config"
)

// TLSSettings locates the PEM files used to secure a connection.
type TLSSettings struct {
	// CertFile and KeyFile hold the client certificate used for mutual TLS
	CertFile string
	KeyFile  string

	// CAFiles are PEM bundles used as root CAs. When empty the system roots
	// are used.
	CAFiles []string
}

// GetTLSConfig creates a TLS config for connection to clickhouse over (m)TLS.
//
// Example usage:
//
//	tls, err := GetTLSConfig(TLSSettings{
//		CertFile: "client.crt",
//		KeyFile:  "client.key",
//		CAFiles:  []string{"ca.crt"},
//	})
//	if err != nil {
//		return err
//	}
func GetTLSConfig(s TLSSettings) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if s.CertFile != "" || s.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(s.CertFile, s.KeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "unable to load certfile/keyfile")
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if len(s.CAFiles) > 0 {
		pool := x509.NewCertPool()
		for _, f := range s.CAFiles {
			caCert, err := os.ReadFile(f)
			if err != nil {
				return nil, errors.Wrapf(err, "unable to load CA file %s", f)
			}

			if !pool.AppendCertsFromPEM(caCert) {
				return nil, errors.Errorf("no PEM certificates found in %s", f)
			}
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}

// tlsSettings derives TLSSettings from props. It returns nil when props ask
// for no TLS and secure is false.
func tlsSettings(props *config.Properties, secure bool) (*TLSSettings, error) {
	if t := strings.TrimSpace(props.SSLTrustStoreType); t != "" && !strings.EqualFold(t, "PEM") {
		return nil, errors.Errorf("unsupported ssl-trust-store-type %q: only PEM is supported", t)
	}

	sslAuth := props.UseSSLAuthentication != nil && *props.UseSSLAuthentication
	if sslAuth && (props.ClientCertificate == "" || props.ClientKey == "") {
		return nil, errors.New("use-ssl-authentication requires client-certificate and client-key")
	}

	s := &TLSSettings{
		CertFile: props.ClientCertificate,
		KeyFile:  props.ClientKey,
	}

	for _, f := range []string{props.RootCertificate, props.SSLTrustStorePath} {
		if f != "" {
			s.CAFiles = append(s.CAFiles, f)
		}
	}

	if !secure && !sslAuth && s.CertFile == "" && len(s.CAFiles) == 0 {
		return nil, nil
	}

	return s, nil
}
