// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command fhedocd runs the FHE document coordinator: a latest-writer-wins
// selection pipeline over encrypted timestamps and identifiers, plus the
// HTTP/WebSocket boundary adapter in front of it.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apimetrics "github.com/luxfi/fhedoc/api/metrics"
	"github.com/luxfi/fhedoc/config"
	"github.com/luxfi/fhedoc/internal/api"
	"github.com/luxfi/fhedoc/internal/content"
	"github.com/luxfi/fhedoc/internal/fhe/lattice"
	"github.com/luxfi/fhedoc/internal/registry"
	"github.com/luxfi/fhedoc/internal/room"
	"github.com/luxfi/fhedoc/internal/selector"
	"github.com/luxfi/fhedoc/log"
)

func main() {
	cfg := config.FromEnv()
	if err := cfg.Valid(); err != nil {
		fmt.Fprintf(os.Stderr, "fhedocd: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(cfg.LogLevel)

	promReg := apimetrics.NewRegistry()
	m, err := apimetrics.NewMetrics("fhedoc", promReg)
	if err != nil {
		logger.Error("register metrics", zap.Error(err))
		os.Exit(1)
	}

	store, err := registry.OpenSQLiteStore(cfg.SQLitePath)
	if err != nil {
		// PersistenceFailure at startup: log and continue with an
		// in-memory-only registry rather than refusing to serve.
		logger.Error("open server-key store; continuing without persistence", zap.Error(err))
	}

	var keyStore registry.Store
	if store != nil {
		keyStore = store
		defer store.Close()
	} else {
		keyStore = noopStore{}
	}

	keyReg := registry.New(keyStore, lattice.DecodePlain, lattice.DecodeCompressed, logger)
	if err := keyReg.Restore(); err != nil {
		logger.Warn("restore evaluation key", zap.Error(err))
	}

	contentStore := content.New(cfg.ContentTTL)
	gc := &content.GC{
		Store:    contentStore,
		Interval: cfg.GCInterval,
		Log:      logger,
		OnEvicted: func(n int) {
			m.ContentEvictions().Add(float64(n))
		},
	}
	gc.Start()
	defer gc.Stop()

	rooms := room.New()
	sel := selector.New(keyReg, contentStore, rooms, m, logger, cfg.TSDigits, cfg.ContentNibbles)

	metricsHandler := promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})
	srv := api.NewServer(keyReg, sel, contentStore, rooms, m, logger, cfg.BodyLimitBytes, metricsHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("starting fhedoc coordinator", zap.Int("port", cfg.Port), zap.String("sqlite_path", cfg.SQLitePath))
	logger.Info("routes",
		zap.String("POST", "/keys/set_server_key"),
		zap.String("POST ", "/keys/set_server_key_bin"),
		zap.String("GET", "/ws"),
		zap.String("GET ", "/content/{content_id}"),
		zap.String("GET  ", "/test"),
		zap.String("GET   ", "/status"),
		zap.String("GET    ", "/metrics"),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			// BindFailure or similar: fatal, per §7.
			logger.Error("listen failed", zap.Error(err))
			os.Exit(1)
		}
	case <-sigCh:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}

// noopStore is used when SQLite fails to open at startup: the registry
// still functions, it just never persists across restarts.
type noopStore struct{}

func (noopStore) Save(registry.Kind, []byte) error { return nil }
func (noopStore) Load() (registry.Kind, []byte, bool, error) {
	return "", nil, false, nil
}
