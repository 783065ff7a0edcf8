// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import "time"

// ServerSelected is the frame the server sends to every subscriber of a
// document, both as an initial snapshot on subscribe and after every
// successful apply.
type ServerSelected struct {
	DocID         string   `json:"doc_id"`
	SelectedIDCts []string `json:"selected_id_cts"`
}

// ClientUpdate is a client-submitted encrypted update for a document.
type ClientUpdate struct {
	DocID      string   `json:"doc_id"`
	TSCts      []string `json:"ts_cts"`
	IDCts      []string `json:"id_cts"`
	ContentID  string   `json:"content_id"`
	ContentCts []string `json:"content_cts"`
}

type setServerKeyRequest struct {
	ServerKeyB64 string `json:"server_key_b64"`
}

type installResponse struct {
	OK    bool   `json:"ok"`
	Kind  string `json:"kind,omitempty"`
	Error string `json:"error,omitempty"`
}

type contentResponse struct {
	ContentCts []string `json:"content_cts"`
}

type testResponse struct {
	Message string `json:"message"`
}

type statusResponse struct {
	KeyInstalled   bool       `json:"key_installed"`
	KeyKind        string     `json:"key_kind,omitempty"`
	KeyInstalledAt *time.Time `json:"key_installed_at,omitempty"`
	Documents      int        `json:"documents"`
	ContentEntries int        `json:"content_entries"`
	Subscribers    int        `json:"subscribers"`
	UptimeSeconds  float64    `json:"uptime_seconds"`
}
