// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON config file, a .env
// file and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by StoreDriver.
const (
	DriverMemory    = "memory"
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
)

// Duration is a time.Duration that reads "90m"-style strings from JSON.
type Duration time.Duration

// UnmarshalJSON accepts either a duration string or nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string `json:"addr"`

	// StoreDriver selects the document store: memory, sqlite, postgres or firestore.
	StoreDriver string `json:"store_driver"`

	// DatabaseDSN is the Postgres connection string or the SQLite file path.
	DatabaseDSN string `json:"database_dsn"`

	// FirestoreProject is the Google Cloud project of the Firestore database.
	FirestoreProject string `json:"firestore_project"`

	// DefaultLanguage is a BCP 47 tag; it is matched to a supported language.
	DefaultLanguage string `json:"default_language"`

	// TrustedDomain is the email domain whose accounts are privileged.
	TrustedDomain string `json:"trusted_domain"`

	// TokenSecret signs session tokens.
	TokenSecret string `json:"token_secret"`

	// TokenTTL is the session lifetime.
	TokenTTL Duration `json:"token_ttl"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// ListenChanges relays Postgres NOTIFY events to live subscriptions.
	ListenChanges bool `json:"listen_changes"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Default returns the options used when nothing else is configured.
func Default() *Options {
	return &Options{
		Addr:            "localhost:8080",
		StoreDriver:     DriverMemory,
		DefaultLanguage: "en",
		TrustedDomain:   "winnermind.com",
		TokenTTL:        Duration(24 * time.Hour),
		LogLevel:        "info",
		Config:          "config.json",
	}
}

// RegisterFlags binds the server flags to o.
func (o *Options) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&o.Addr, "a", o.Addr, "run on ip:port server")
	fs.StringVar(&o.StoreDriver, "s", o.StoreDriver, "store driver: memory, sqlite, postgres, firestore")
	fs.StringVar(&o.DatabaseDSN, "d", o.DatabaseDSN, "db address or sqlite file")
	fs.StringVar(&o.FirestoreProject, "p", o.FirestoreProject, "firestore project id")
	fs.StringVar(&o.DefaultLanguage, "l", o.DefaultLanguage, "default language")
	fs.StringVar(&o.Config, "config", o.Config, "path to config file")
	fs.StringVar(&o.Config, "c", o.Config, "path to config file (shorthand)")
}

// Load builds options from args, the config file, .env and the
// environment. Later sources win: flags, then the config file, then
// environment variables.
func Load(args []string) (*Options, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	o := Default()
	fset := flag.NewFlagSet("winnermind", flag.ContinueOnError)
	o.RegisterFlags(fset)
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		o.Config = configPath
	}
	if err := o.LoadFile(o.Config); err != nil {
		return nil, err
	}
	if err := o.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Parse loads the options from the process arguments and exits on error.
func Parse() *Options {
	o, err := Load(os.Args[1:])
	if err != nil {
		log.Fatalf("error while loading config: %v", err)
	}
	return o
}

// LoadFile overlays the JSON config file at path. A missing file is skipped.
func (o *Options) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides options with the environment variables that are set.
func (o *Options) ApplyEnv() error {
	strs := map[string]*string{
		"SERVER_ADDRESS":    &o.Addr,
		"STORE_DRIVER":      &o.StoreDriver,
		"DATABASE_DSN":      &o.DatabaseDSN,
		"FIRESTORE_PROJECT": &o.FirestoreProject,
		"DEFAULT_LANGUAGE":  &o.DefaultLanguage,
		"TRUSTED_DOMAIN":    &o.TrustedDomain,
		"TOKEN_SECRET":      &o.TokenSecret,
		"LOG_LEVEL":         &o.LogLevel,
		"TLS_CERT":          &o.TLSCert,
		"TLS_KEY":           &o.TLSKey,
	}
	for env, dst := range strs {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKEN_TTL: %w", err)
		}
		o.TokenTTL = Duration(ttl)
	}
	if v := os.Getenv("LISTEN_CHANGES"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LISTEN_CHANGES: %w", err)
		}
		o.ListenChanges = on
	}
	return nil
}

// Validate checks the options that have a fixed set of values.
func (o *Options) Validate() error {
	switch o.StoreDriver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if o.DatabaseDSN == "" {
			return fmt.Errorf("store driver %s needs a database DSN", o.StoreDriver)
		}
	case DriverFirestore:
		if o.FirestoreProject == "" {
			return errors.New("store driver firestore needs a project id")
		}
	default:
		return fmt.Errorf("unknown store driver %q", o.StoreDriver)
	}
	if time.Duration(o.TokenTTL) <= 0 {
		return errors.New("token ttl must be positive")
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		return errors.New("tls cert and key must be set together")
	}
	return nil
}
