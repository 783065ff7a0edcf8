// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/fhedoc/internal/api"
	"github.com/luxfi/fhedoc/internal/fhe"
	"github.com/luxfi/fhedoc/internal/fhe/fhetest"
)

func dialWS(t *testing.T, ts *httptest.Server, docID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?doc_id=" + docID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

// TestWS_SubscribeReceivesBroadcastAfterApply exercises P5/O4: a
// subscriber attached before any selection exists receives no initial
// snapshot, then receives a ServerSelected frame carrying the applied
// identifier once an update is applied.
func TestWS_SubscribeReceivesBroadcastAfterApply(t *testing.T) {
	require := require.New(t)
	srv, _, _, reg := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	_, err := reg.Install([]byte(plainPrefix + "blob"))
	require.NoError(err)

	conn := dialWS(t, ts, "doc-a")
	defer conn.Close()

	tsCts, err := fhe.EncodeSeq(fhetest.EncryptSeq(fhe.ArityNibble, 1, 0, 0))
	require.NoError(err)
	idCts, err := fhe.EncodeSeq(fhetest.EncryptSeq(fhe.ArityNibble, 0, 0, 7))
	require.NoError(err)

	require.NoError(conn.WriteJSON(api.ClientUpdate{
		DocID: "doc-a",
		TSCts: tsCts,
		IDCts: idCts,
	}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame api.ServerSelected
	require.NoError(conn.ReadJSON(&frame))
	require.Equal("doc-a", frame.DocID)

	got, err := fhe.DecodeSeq(frame.SelectedIDCts, fhetest.NewHandle)
	require.NoError(err)
	require.Equal([]int{0, 0, 7}, fhetest.DecryptSeq(got))
}

// TestWS_InitialSnapshotForLateSubscriber exercises O4: a subscriber
// attaching after a selection already exists for the document receives
// it immediately, without submitting an update itself.
func TestWS_InitialSnapshotForLateSubscriber(t *testing.T) {
	require := require.New(t)
	srv, _, sel, reg := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	_, err := reg.Install([]byte(plainPrefix + "blob"))
	require.NoError(err)

	_, _, err = sel.Apply(
		context.Background(),
		"doc-a",
		fhetest.EncryptSeq(fhe.ArityNibble, 1, 0, 0),
		fhetest.EncryptSeq(fhe.ArityNibble, 0, 0, 7),
		"", nil,
	)
	require.NoError(err)

	conn := dialWS(t, ts, "doc-a")
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame api.ServerSelected
	require.NoError(conn.ReadJSON(&frame))
	require.Equal("doc-a", frame.DocID)

	got, err := fhe.DecodeSeq(frame.SelectedIDCts, fhetest.NewHandle)
	require.NoError(err)
	require.Equal([]int{0, 0, 7}, fhetest.DecryptSeq(got))
}

// TestWS_MalformedUpdateDroppedConnectionStaysOpen exercises §7's
// MalformedCiphertext policy: a structurally invalid ciphertext is
// dropped, and the connection remains usable for a subsequent,
// well-formed update.
func TestWS_MalformedUpdateDroppedConnectionStaysOpen(t *testing.T) {
	require := require.New(t)
	srv, _, _, reg := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	_, err := reg.Install([]byte(plainPrefix + "blob"))
	require.NoError(err)

	conn := dialWS(t, ts, "doc-a")
	defer conn.Close()

	require.NoError(conn.WriteJSON(api.ClientUpdate{
		DocID: "doc-a",
		TSCts: []string{"not valid base64!!"},
		IDCts: []string{"also not valid!!"},
	}))

	tsCts, err := fhe.EncodeSeq(fhetest.EncryptSeq(fhe.ArityNibble, 1, 0, 0))
	require.NoError(err)
	idCts, err := fhe.EncodeSeq(fhetest.EncryptSeq(fhe.ArityNibble, 0, 0, 7))
	require.NoError(err)
	require.NoError(conn.WriteJSON(api.ClientUpdate{
		DocID: "doc-a",
		TSCts: tsCts,
		IDCts: idCts,
	}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame api.ServerSelected
	require.NoError(conn.ReadJSON(&frame))
	require.Equal("doc-a", frame.DocID)
}

// TestWS_UpdateDroppedWhenNoKeyInstalled exercises KeyAbsent (§7): with
// no evaluation key installed, a submitted update produces no broadcast
// and the connection is not torn down.
func TestWS_UpdateDroppedWhenNoKeyInstalled(t *testing.T) {
	require := require.New(t)
	srv, _, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	conn := dialWS(t, ts, "doc-a")
	defer conn.Close()

	require.NoError(conn.WriteJSON(api.ClientUpdate{
		DocID: "doc-a",
		TSCts: []string{},
		IDCts: []string{},
	}))

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var frame api.ServerSelected
	err := conn.ReadJSON(&frame)
	require.Error(err) // deadline exceeded: nothing was broadcast
}
