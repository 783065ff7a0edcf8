// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/fhedoc/internal/api"
	"github.com/luxfi/fhedoc/internal/content"
	"github.com/luxfi/fhedoc/internal/fhe"
	"github.com/luxfi/fhedoc/internal/fhe/fhetest"
	"github.com/luxfi/fhedoc/internal/registry"
	"github.com/luxfi/fhedoc/internal/room"
	"github.com/luxfi/fhedoc/internal/selector"
	"github.com/luxfi/fhedoc/log"
)

const plainPrefix = "plain:"

func decodePlain(blob []byte) (fhe.EvalKey, error) {
	if !strings.HasPrefix(string(blob), plainPrefix) {
		return nil, fhe.ErrMalformedCiphertext
	}
	return fhetest.Key{}, nil
}

func decodeCompressed([]byte) (fhe.EvalKey, error) {
	return nil, fhe.ErrMalformedCiphertext
}

func newTestServer(t *testing.T) (*api.Server, *room.Rooms, *selector.Selector, *registry.Registry) {
	t.Helper()
	reg := registry.New(noopStore{}, decodePlain, decodeCompressed, log.NewNoOpLogger())
	rooms := room.New()
	contentStore := content.New(0)
	sel := selector.New(reg, contentStore, rooms, nil, log.NewNoOpLogger(), 3, 2)
	srv := api.NewServer(reg, sel, contentStore, rooms, nil, log.NewNoOpLogger(), 1<<20, nil)
	return srv, rooms, sel, reg
}

type noopStore struct{}

func (noopStore) Save(registry.Kind, []byte) error           { return nil }
func (noopStore) Load() (registry.Kind, []byte, bool, error) { return "", nil, false, nil }

func TestHandleTest(t *testing.T) {
	require := require.New(t)
	srv, _, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(err)
	defer resp.Body.Close()
	require.Equal(http.StatusOK, resp.StatusCode)
}

func TestHandleSetServerKey_Accepted(t *testing.T) {
	require := require.New(t)
	srv, _, _, reg := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	body, err := json.Marshal(map[string]string{
		"server_key_b64": base64.StdEncoding.EncodeToString([]byte(plainPrefix + "blob")),
	})
	require.NoError(err)

	resp, err := http.Post(ts.URL+"/keys/set_server_key", "application/json", strings.NewReader(string(body)))
	require.NoError(err)
	defer resp.Body.Close()
	require.Equal(http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(true, out["ok"])
	require.Equal("server_key", out["kind"])

	_, ok := reg.Current()
	require.True(ok)
}

func TestHandleSetServerKey_RejectedUnrecognized(t *testing.T) {
	require := require.New(t)
	srv, _, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	body, err := json.Marshal(map[string]string{
		"server_key_b64": base64.StdEncoding.EncodeToString([]byte("garbage")),
	})
	require.NoError(err)

	resp, err := http.Post(ts.URL+"/keys/set_server_key", "application/json", strings.NewReader(string(body)))
	require.NoError(err)
	defer resp.Body.Close()
	// §7: unrecognized key is reported as {ok:false} with HTTP 200, not
	// a non-2xx status.
	require.Equal(http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(false, out["ok"])
}

func TestHandleSetServerKeyBin(t *testing.T) {
	require := require.New(t)
	srv, _, _, reg := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/keys/set_server_key_bin", "application/octet-stream", strings.NewReader(plainPrefix+"blob"))
	require.NoError(err)
	defer resp.Body.Close()
	require.Equal(http.StatusOK, resp.StatusCode)

	_, ok := reg.Current()
	require.True(ok)
}

func TestHandleGetContent_Miss(t *testing.T) {
	require := require.New(t)
	srv, _, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/content/missing")
	require.NoError(err)
	defer resp.Body.Close()
	require.Equal(http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(json.NewDecoder(resp.Body).Decode(&out))
	require.Empty(out["content_cts"])
}

func TestHandleGetContent_Hit(t *testing.T) {
	require := require.New(t)
	srv, _, sel, reg := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	_, err := reg.Install([]byte(plainPrefix + "blob"))
	require.NoError(err)

	_, _, err = sel.Apply(context.Background(), "doc-a", fhetest.EncryptSeq(fhe.ArityNibble, 1, 0, 0), fhetest.EncryptSeq(fhe.ArityNibble, 0, 0, 7), "c1", fhetest.EncryptSeq(fhe.ArityNibble, 9, 9))
	require.NoError(err)

	resp, err := http.Get(ts.URL + "/content/c1")
	require.NoError(err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(json.NewDecoder(resp.Body).Decode(&out))
	cts, ok := out["content_cts"].([]any)
	require.True(ok)
	require.Len(cts, 2)
}

func TestHandleStatus(t *testing.T) {
	require := require.New(t)
	srv, _, _, reg := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(false, out["key_installed"])

	_, err = reg.Install([]byte(plainPrefix + "blob"))
	require.NoError(err)

	resp2, err := http.Get(ts.URL + "/status")
	require.NoError(err)
	defer resp2.Body.Close()
	var out2 map[string]any
	require.NoError(json.NewDecoder(resp2.Body).Decode(&out2))
	require.Equal(true, out2["key_installed"])
}
