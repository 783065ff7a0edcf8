// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/luxfi/fhedoc/internal/fhe"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", zap.Error(err))
	}
}

// handleSetServerKey implements POST /keys/set_server_key: install an
// evaluation key delivered as base64 inside a JSON envelope.
func (s *Server) handleSetServerKey(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.bodyLimit))
	if err != nil {
		s.writeJSON(w, http.StatusOK, installResponse{OK: false, Error: err.Error()})
		return
	}
	var req setServerKeyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeJSON(w, http.StatusOK, installResponse{OK: false, Error: "malformed request body"})
		return
	}
	blob, err := base64.StdEncoding.DecodeString(req.ServerKeyB64)
	if err != nil {
		s.writeJSON(w, http.StatusOK, installResponse{OK: false, Error: "malformed base64"})
		return
	}
	s.install(w, blob)
}

// handleSetServerKeyBin implements POST /keys/set_server_key_bin: the
// same install operation, with the blob as the raw request body.
func (s *Server) handleSetServerKeyBin(w http.ResponseWriter, r *http.Request) {
	blob, err := io.ReadAll(io.LimitReader(r.Body, s.bodyLimit))
	if err != nil {
		s.writeJSON(w, http.StatusOK, installResponse{OK: false, Error: err.Error()})
		return
	}
	s.install(w, blob)
}

func (s *Server) install(w http.ResponseWriter, blob []byte) {
	kind, err := s.registry.Install(blob)
	if err != nil {
		s.writeJSON(w, http.StatusOK, installResponse{OK: false, Error: err.Error()})
		return
	}
	if s.metrics != nil {
		s.metrics.KeyInstalls().Inc()
	}
	s.writeJSON(w, http.StatusOK, installResponse{OK: true, Kind: string(kind)})
}

// handleGetContent implements GET /content/{content_id}.
func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "content_id")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")

	payload, ok := s.content.Get(id)
	if !ok {
		s.writeJSON(w, http.StatusOK, contentResponse{ContentCts: []string{}})
		return
	}
	cts, err := fhe.EncodeSeq(payload)
	if err != nil {
		s.log.Error("encode content payload", zap.String("content_id", id), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, contentResponse{ContentCts: cts})
}

// handleTest implements GET /test, the liveness endpoint.
func (s *Server) handleTest(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, testResponse{Message: "ok"})
}

// handleStatus implements GET /status, a read-only observability
// addition beyond spec.md's own endpoint list (see SPEC_FULL.md §6).
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.registry.StatusSnapshot()
	resp := statusResponse{
		KeyInstalled:   st.Present,
		Documents:      s.selector.DocCount(),
		ContentEntries: s.content.Len(),
		Subscribers:    s.rooms.Count(),
		UptimeSeconds:  time.Since(s.started).Seconds(),
	}
	if st.Present {
		resp.KeyKind = string(st.Kind)
		t := st.InstalledAt
		resp.KeyInstalledAt = &t
	}
	s.writeJSON(w, http.StatusOK, resp)
}
