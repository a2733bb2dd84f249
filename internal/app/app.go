// Package app builds the document store and the services on top of it from
// the configuration. The server and the operator CLI share it.
package app

import (
	"context"
	"crypto/rand"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/atinyakov/winnermind/internal/config"
	"github.com/atinyakov/winnermind/internal/db"
	"github.com/atinyakov/winnermind/internal/docstore"
	"github.com/atinyakov/winnermind/internal/identity"
	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/repository"
	"github.com/atinyakov/winnermind/internal/service"
)

// App is the wired data layer.
type App struct {
	Store    docstore.Store
	Repos    service.Repositories
	Resolver *service.SettingsResolver
	Identity *identity.Provider
	Manager  *service.Manager

	cancel context.CancelFunc
}

// OpenStore opens the document store selected by opts.StoreDriver. With
// the Postgres driver and ListenChanges set, writes of other processes are
// relayed to live subscriptions until ctx is cancelled.
func OpenStore(ctx context.Context, opts *config.Options, log *zap.Logger) (docstore.Store, error) {
	switch opts.StoreDriver {
	case config.DriverMemory:
		return docstore.NewMemoryStore(), nil
	case config.DriverSQLite:
		sqlDB, err := db.InitSQLite(opts.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return docstore.NewSQLStore(sqlDB, docstore.SQLite), nil
	case config.DriverPostgres:
		sqlDB, err := db.InitPostgres(opts.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		store := docstore.NewSQLStore(sqlDB, docstore.Postgres)
		if opts.ListenChanges {
			if err := docstore.ListenPostgres(ctx, opts.DatabaseDSN, store, log); err != nil {
				return nil, multierr.Append(err, store.Close())
			}
		}
		return store, nil
	case config.DriverFirestore:
		return docstore.NewFirestoreStore(ctx, opts.FirestoreProject)
	}
	return nil, fmt.Errorf("unknown store driver %q", opts.StoreDriver)
}

// New opens the store and builds every service over it.
func New(ctx context.Context, opts *config.Options, log *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(ctx)
	store, err := OpenStore(ctx, opts, log)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open %s store: %w", opts.StoreDriver, err)
	}

	secret := []byte(opts.TokenSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			cancel()
			return nil, multierr.Append(fmt.Errorf("generate token secret: %w", err), store.Close())
		}
		log.Warn("no token secret configured, sessions will not survive a restart")
	}

	a := Build(store, opts, secret, log)
	a.cancel = cancel
	return a, nil
}

// Build wires the services over an open store.
func Build(store docstore.Store, opts *config.Options, secret []byte, log *zap.Logger) *App {
	repos := service.Repositories{
		Settings:   repository.NewSettingsRepository(store),
		Goals:      repository.NewGoalRepository(store),
		Challenges: repository.NewChallengeRepository(store),
		Programs:   repository.NewProgramRepository(store),
		Users:      repository.NewUserRepository(store),
	}
	resolver := service.NewSettingsResolver(repos.Settings, models.MatchLanguage(opts.DefaultLanguage), log)
	provider := identity.NewProvider(store, identity.Options{
		Secret: secret,
		TTL:    opts.TokenTTL.Std(),
		Policy: identity.Policy{TrustedDomain: opts.TrustedDomain},
	}, log)
	manager := service.NewManager(repos, resolver, service.ManagerOptions{
		Modes:      service.DefaultFeedModes(),
		Privileged: provider.Policy().IsPrivileged,
		Log:        log,
	})
	return &App{
		Store:    store,
		Repos:    repos,
		Resolver: resolver,
		Identity: provider,
		Manager:  manager,
		cancel:   func() {},
	}
}

// Close tears down every workspace, stops the change listener and closes
// the store.
func (a *App) Close() error {
	a.Manager.CloseAll()
	a.cancel()
	return a.Store.Close()
}
