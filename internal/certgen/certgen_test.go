package certgen

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCA(t *testing.T) (string, string, *x509.Certificate) {
	t.Helper()
	caCert, caKey, err := GenerateCA("Test CA", 24*time.Hour)
	require.NoError(t, err)
	keyPEM, err := EncodeKey(caKey)
	require.NoError(t, err)

	dir := t.TempDir()
	certPath, keyPath := filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key")
	require.NoError(t, WriteFiles(certPath, keyPath, EncodeCertificate(caCert.Raw), keyPEM))
	return certPath, keyPath, caCert
}

func TestGenerateCA(t *testing.T) {
	caCert, caKey, err := GenerateCA("Winnermind Dev CA", 48*time.Hour)
	require.NoError(t, err)

	assert.True(t, caCert.IsCA)
	assert.True(t, caCert.BasicConstraintsValid)
	assert.Equal(t, "Winnermind Dev CA", caCert.Subject.CommonName)
	assert.NotZero(t, caCert.KeyUsage&x509.KeyUsageCertSign)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), caCert.NotAfter, time.Minute)
	assert.True(t, caKey.PublicKey.Equal(caCert.PublicKey))
}

func TestLoadCACredentials(t *testing.T) {
	certPath, keyPath, want := writeCA(t)

	got, key, err := LoadCACredentials(certPath, keyPath)
	require.NoError(t, err)
	assert.Equal(t, want.Raw, got.Raw)
	assert.NotNil(t, key)

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadCACredentials_Errors(t *testing.T) {
	certPath, keyPath, _ := writeCA(t)
	garbage := filepath.Join(t.TempDir(), "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a pem"), 0o600))

	tests := []struct {
		name     string
		cert     string
		key      string
		expected string
	}{
		{"missing cert", "/no/such/file.pem", keyPath, "read ca cert"},
		{"missing key", certPath, "/no/such/key.pem", "read ca key"},
		{"bad cert", garbage, keyPath, "invalid CA cert PEM"},
		{"bad key", certPath, garbage, "invalid CA key PEM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadCACredentials(tt.cert, tt.key)
			assert.ErrorContains(t, err, tt.expected)
		})
	}
}

func TestGenerateServerCertificate(t *testing.T) {
	caCert, caKey, err := GenerateCA("Test CA", time.Hour)
	require.NoError(t, err)

	certPEM, keyPEM, err := GenerateServerCertificate([]string{"localhost", "127.0.0.1"}, caCert, caKey)
	require.NoError(t, err)

	block, _ := pem.Decode(certPEM)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cert.Subject.CommonName)
	assert.Equal(t, []string{"localhost"}, cert.DNSNames)
	require.Len(t, cert.IPAddresses, 1)
	assert.True(t, cert.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")))
	assert.Equal(t, []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}, cert.ExtKeyUsage)
	assert.NoError(t, cert.CheckSignatureFrom(caCert))

	pool := x509.NewCertPool()
	pool.AddCert(caCert)
	_, err = cert.Verify(x509.VerifyOptions{DNSName: "localhost", Roots: pool})
	assert.NoError(t, err)

	_, err = tls.X509KeyPair(certPEM, keyPEM)
	assert.NoError(t, err)

	_, _, err = GenerateServerCertificate(nil, caCert, caKey)
	assert.Error(t, err)
}

func TestServerTLSConfig(t *testing.T) {
	caCert, caKey, err := GenerateCA("Test CA", time.Hour)
	require.NoError(t, err)
	certPEM, keyPEM, err := GenerateServerCertificate([]string{"localhost"}, caCert, caKey)
	require.NoError(t, err)

	dir := t.TempDir()
	certPath, keyPath := filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key")
	require.NoError(t, WriteFiles(certPath, keyPath, certPEM, keyPEM))

	cfg, err := ServerTLSConfig(certPath, keyPath)
	require.NoError(t, err)
	assert.Len(t, cfg.Certificates, 1)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)

	_, err = ServerTLSConfig(filepath.Join(dir, "missing.crt"), keyPath)
	assert.ErrorContains(t, err, "load server key pair")
}
