package main

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCert(t *testing.T, path string) *x509.Certificate {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	block, _ := pem.Decode(raw)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	return cert
}

func TestSplitHosts(t *testing.T) {
	assert.Equal(t, []string{"localhost", "127.0.0.1"}, splitHosts(" localhost, ,127.0.0.1 "))
	assert.Empty(t, splitHosts(""))
}

func TestRun_CreatesAndReusesCA(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")

	require.NoError(t, run(dir, []string{"localhost"}))
	ca := readCert(t, filepath.Join(dir, "ca.crt"))
	server := readCert(t, filepath.Join(dir, "server.crt"))
	assert.True(t, ca.IsCA)
	assert.Equal(t, []string{"localhost"}, server.DNSNames)
	assert.NoError(t, server.CheckSignatureFrom(ca))

	require.NoError(t, run(dir, []string{"api.winnermind.test"}))
	again := readCert(t, filepath.Join(dir, "ca.crt"))
	assert.Equal(t, ca.Raw, again.Raw, "existing CA is kept")
	server = readCert(t, filepath.Join(dir, "server.crt"))
	assert.Equal(t, []string{"api.winnermind.test"}, server.DNSNames)
	assert.NoError(t, server.CheckSignatureFrom(ca))
}

func TestRun_NoHosts(t *testing.T) {
	assert.Error(t, run(t.TempDir(), nil))
}
