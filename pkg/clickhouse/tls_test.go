package clickhouse

import (
	"testing"

	"github.com/pseudomuto/chdata/pkg/config"
	"github.com/stretchr/testify/require"
)

// If you ever need to regenerate the files in testdata
//
//openssl req -x509 -new -nodes -key ca.key -sha256 -days 365 \
//  -out ca.crt \
//  -subj "/C=AB/ST=CD/L=SomeRock/O=TestCA/CN=Test Root CA"
//
// openssl genrsa -out client.key 2048
//
// openssl req -new -key client.key -out client.csr \
//  -subj "/C=AB/ST=CD/L=TheMoon/O=TestOrg/CN=foobar"
//
// openssl x509 -req -in client.csr -CA ca.crt -CAkey ca.key -CAcreateserial \
// -out client.crt -days 365 -sha256

const (
	certFile = "testdata/client.crt"
	keyFile  = "testdata/client.key"
	caFile   = "testdata/ca.crt"
	notPEM   = "testdata/not-pem.txt"
)

func TestGetTLSConfig(t *testing.T) {
	tests := []struct {
		name    string
		opts    TLSSettings
		certs   int
		roots   bool
		wantErr string
	}{
		{
			name: "valid configuration",
			opts: TLSSettings{
				CertFile: certFile,
				KeyFile:  keyFile,
				CAFiles:  []string{caFile},
			},
			certs: 1,
			roots: true,
		},
		{
			name:  "roots only",
			opts:  TLSSettings{CAFiles: []string{caFile, caFile}},
			roots: true,
		},
		{
			name: "system roots",
		},
		{
			name: "invalid cert file",
			opts: TLSSettings{
				CertFile: "bogus.tls",
				KeyFile:  keyFile,
			},
			wantErr: "unable to load certfile/keyfile",
		},
		{
			name: "invalid key file",
			opts: TLSSettings{
				CertFile: certFile,
				KeyFile:  "bogus.key",
			},
			wantErr: "unable to load certfile/keyfile",
		},
		{
			name:    "invalid CA file",
			opts:    TLSSettings{CAFiles: []string{"bogus.tls"}},
			wantErr: "unable to load CA file bogus.tls",
		},
		{
			name:    "CA file without certificates",
			opts:    TLSSettings{CAFiles: []string{notPEM}},
			wantErr: "no PEM certificates found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := GetTLSConfig(tt.opts)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				require.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			require.Len(t, cfg.Certificates, tt.certs)
			require.Equal(t, tt.roots, cfg.RootCAs != nil)
		})
	}
}

func TestTLSSettings(t *testing.T) {
	yes := true

	tests := []struct {
		name    string
		props   config.Properties
		secure  bool
		want    *TLSSettings
		wantErr string
	}{
		{
			name: "plain",
		},
		{
			name:   "secure endpoint",
			secure: true,
			want:   &TLSSettings{},
		},
		{
			name:  "root certificate and trust store",
			props: config.Properties{RootCertificate: caFile, SSLTrustStorePath: "store.pem", SSLTrustStoreType: "pem"},
			want:  &TLSSettings{CAFiles: []string{caFile, "store.pem"}},
		},
		{
			name:  "client certificate",
			props: config.Properties{ClientCertificate: certFile, ClientKey: keyFile},
			want:  &TLSSettings{CertFile: certFile, KeyFile: keyFile},
		},
		{
			name:  "ssl authentication",
			props: config.Properties{UseSSLAuthentication: &yes, ClientCertificate: certFile, ClientKey: keyFile},
			want:  &TLSSettings{CertFile: certFile, KeyFile: keyFile},
		},
		{
			name:    "ssl authentication without certificate",
			props:   config.Properties{UseSSLAuthentication: &yes},
			wantErr: "use-ssl-authentication requires client-certificate and client-key",
		},
		{
			name:    "jks trust store",
			props:   config.Properties{SSLTrustStorePath: "store.jks", SSLTrustStoreType: "JKS"},
			wantErr: `unsupported ssl-trust-store-type "JKS"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tlsSettings(&tt.props, tt.secure)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
