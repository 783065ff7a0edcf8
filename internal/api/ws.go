// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/luxfi/fhedoc/internal/fhe"
)

// handleWS implements GET /ws?doc_id=<D>: it upgrades the connection,
// attaches a room subscription, delivers an initial snapshot if one
// exists, then runs the read loop until the client disconnects.
//
// Two goroutines share this connection: the one running here (reading
// ClientUpdate frames) and one forwarding room broadcasts
// (ServerSelected frames). gorilla/websocket permits only one writer at
// a time, so both go through sendSelected under a shared mutex.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	docID := r.URL.Query().Get("doc_id")
	if docID == "" {
		http.Error(w, "doc_id is required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	var writeMu sync.Mutex
	sub, unsubscribe := s.rooms.Subscribe(docID)
	if s.metrics != nil {
		s.metrics.ActiveSubscribers().Inc()
	}

	if rec, ok := s.selector.Snapshot(docID); ok {
		s.sendSelected(conn, &writeMu, docID, rec.SelectedID)
	}

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		for msg := range sub {
			s.sendSelected(conn, &writeMu, msg.DocID, msg.SelectedID)
		}
	}()

	s.readLoop(r.Context(), conn, docID)

	// The connection closed or errored: tear down the subscription and
	// wait for the forwarding goroutine to observe the closed channel
	// before closing the socket out from under it.
	unsubscribe()
	<-forwardDone
	if s.metrics != nil {
		s.metrics.ActiveSubscribers().Dec()
	}
	conn.Close()
}

func (s *Server) sendSelected(conn *websocket.Conn, mu *sync.Mutex, docID string, selectedID []fhe.Digit) {
	cts, err := fhe.EncodeSeq(selectedID)
	if err != nil {
		s.log.Error("encode selected id", zap.String("doc_id", docID), zap.Error(err))
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if err := conn.WriteJSON(ServerSelected{DocID: docID, SelectedIDCts: cts}); err != nil {
		s.log.Debug("write server_selected frame failed", zap.String("doc_id", docID), zap.Error(err))
	}
}

// readLoop reads ClientUpdate frames until the connection closes or
// errors. A malformed frame is logged and dropped; the connection stays
// open (MalformedMessage, §7).
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, docID string) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame ClientUpdate
		if err := json.Unmarshal(data, &frame); err != nil {
			s.log.Warn("update dropped: malformed message", zap.String("doc_id", docID), zap.Error(err))
			if s.metrics != nil {
				s.metrics.UpdatesDropped().Inc()
			}
			continue
		}
		if frame.DocID == "" {
			frame.DocID = docID
		}
		s.applyClientUpdate(ctx, frame)
	}
}

func (s *Server) applyClientUpdate(ctx context.Context, frame ClientUpdate) {
	ek, ok := s.registry.Current()
	if !ok {
		// KeyAbsent: drop silently, per §7. One debug log line is the
		// only observable trace.
		s.log.Debug("update dropped: no evaluation key installed", zap.String("doc_id", frame.DocID))
		if s.metrics != nil {
			s.metrics.UpdatesDropped().Inc()
		}
		return
	}
	factory := ek.HandleFactory()

	ts, err := fhe.DecodeSeq(frame.TSCts, factory)
	if err != nil {
		s.dropMalformed(frame.DocID, "ts_cts", err)
		return
	}
	id, err := fhe.DecodeSeq(frame.IDCts, factory)
	if err != nil {
		s.dropMalformed(frame.DocID, "id_cts", err)
		return
	}
	payload, err := fhe.DecodeSeq(frame.ContentCts, factory)
	if err != nil {
		s.dropMalformed(frame.DocID, "content_cts", err)
		return
	}

	if _, _, err := s.selector.Apply(ctx, frame.DocID, ts, id, frame.ContentID, payload); err != nil {
		s.log.Error("apply failed", zap.String("doc_id", frame.DocID), zap.Error(err))
	}
}

func (s *Server) dropMalformed(docID, field string, err error) {
	s.log.Warn("update dropped: malformed ciphertext", zap.String("doc_id", docID), zap.String("field", field), zap.Error(err))
	if s.metrics != nil {
		s.metrics.UpdatesDropped().Inc()
	}
}
