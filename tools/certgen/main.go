// Package main writes a development CA and a server certificate signed by
// it into a directory (certs by default). An existing CA is reused so
// clients that already trust it keep working.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/winnermind/internal/certgen"
)

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma-separated server host names and IPs")
	flag.Parse()

	if err := run(*dir, splitHosts(*hosts)); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
	fmt.Printf("Certificates written to ./%s\n", *dir)
}

func splitHosts(s string) []string {
	var out []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

func run(dir string, hosts []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	caCertPath, caKeyPath := filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key")

	caCert, caKey, err := certgen.LoadCACredentials(caCertPath, caKeyPath)
	if errors.Is(err, fs.ErrNotExist) {
		cert, key, genErr := certgen.GenerateCA("Winnermind Dev CA", 10*365*24*time.Hour)
		if genErr != nil {
			return genErr
		}
		keyPEM, genErr := certgen.EncodeKey(key)
		if genErr != nil {
			return genErr
		}
		if genErr := certgen.WriteFiles(caCertPath, caKeyPath, certgen.EncodeCertificate(cert.Raw), keyPEM); genErr != nil {
			return genErr
		}
		caCert, caKey, err = cert, key, nil
	}
	if err != nil {
		return err
	}

	certPEM, keyPEM, err := certgen.GenerateServerCertificate(hosts, caCert, caKey)
	if err != nil {
		return err
	}
	return certgen.WriteFiles(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"), certPEM, keyPEM)
}
