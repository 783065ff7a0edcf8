// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api is the boundary adapter (C7): HTTP + WebSocket surface,
// base64 digit framing, and subscription lifecycle, fronting the
// encrypted selection pipeline in internal/selector. It is the only
// package that knows about wire JSON shapes; everything past the
// handlers deals exclusively in fhe.Digit.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/luxfi/fhedoc/api/metrics"
	"github.com/luxfi/fhedoc/internal/content"
	"github.com/luxfi/fhedoc/internal/registry"
	"github.com/luxfi/fhedoc/internal/room"
	"github.com/luxfi/fhedoc/internal/selector"
	"github.com/luxfi/fhedoc/log"
)

// Server wires the boundary adapter's handlers to the domain
// components. It holds no ciphertext state of its own.
type Server struct {
	registry *registry.Registry
	selector *selector.Selector
	content  *content.Store
	rooms    *room.Rooms
	metrics  metrics.Metrics
	log      log.Logger

	bodyLimit      int64
	started        time.Time
	upgrader       websocket.Upgrader
	metricsHandler http.Handler
}

// NewServer builds a Server. metricsHandler is the promhttp handler to
// mount at /metrics; it is supplied by the caller because it closes
// over the concrete prometheus.Gatherer the process constructed.
func NewServer(
	reg *registry.Registry,
	sel *selector.Selector,
	contentStore *content.Store,
	rooms *room.Rooms,
	m metrics.Metrics,
	logger log.Logger,
	bodyLimit int64,
	metricsHandler http.Handler,
) *Server {
	return &Server{
		registry:  reg,
		selector:  sel,
		content:   contentStore,
		rooms:     rooms,
		metrics:   m,
		log:       logger,
		bodyLimit: bodyLimit,
		started:   time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The coordinator authenticates nothing (spec.md Non-goals);
			// CORS below is likewise permissive, so there is no
			// same-origin invariant for CheckOrigin to protect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		metricsHandler: metricsHandler,
	}
}

// Routes builds the HTTP router for every endpoint in §6.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"*"},
	}))

	r.Post("/keys/set_server_key", s.handleSetServerKey)
	r.Post("/keys/set_server_key_bin", s.handleSetServerKeyBin)
	r.Get("/ws", s.handleWS)
	r.Get("/content/{content_id}", s.handleGetContent)
	r.Get("/test", s.handleTest)
	r.Get("/status", s.handleStatus)
	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}
	return r
}
