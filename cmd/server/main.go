// Package main starts the Winnermind API server: configuration, logging,
// the document store, the services, the HTTP router and optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/winnermind/internal/app"
	"github.com/atinyakov/winnermind/internal/certgen"
	"github.com/atinyakov/winnermind/internal/config"
	"github.com/atinyakov/winnermind/internal/identity"
	"github.com/atinyakov/winnermind/internal/logger"
	"github.com/atinyakov/winnermind/internal/server/handler/http"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	options := config.Parse()

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, options, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot open document store", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			zapLogger.Error("failed to close document store", zap.Error(err))
		}
	}()

	identity.StartSessionCleaner(ctx, a.Store, time.Hour, zapLogger)
	a.Manager.StartIdleReaper(ctx, 5*time.Minute, 30*time.Minute)

	handlers := http.NewHandlers(a.Manager, a.Resolver, a.Identity, zapLogger)
	router := http.NewRouter(handlers, a.Identity, a.Identity.Policy().IsPrivileged, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if options.TLSCert != "" {
		tlsConfig, err := certgen.ServerTLSConfig(options.TLSCert, options.TLSKey)
		if err != nil {
			zapLogger.Fatal("failed to load server TLS cert/key", zap.Error(err))
		}
		server.TLSConfig = tlsConfig
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Addr), zap.String("store", options.StoreDriver))
		err = server.ListenAndServeTLS("", "")
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Error("HTTPS server failed", zap.Error(err))
		}
		return
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr), zap.String("store", options.StoreDriver))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Error("HTTP server failed", zap.Error(err))
	}
}
