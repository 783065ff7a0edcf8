// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package content_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/fhedoc/internal/content"
	"github.com/luxfi/fhedoc/internal/fhe"
	"github.com/luxfi/fhedoc/internal/fhe/fhetest"
)

func TestStore_PutGet(t *testing.T) {
	require := require.New(t)
	s := content.New(time.Minute)

	payload := fhetest.EncryptSeq(fhe.ArityNibble, 0xA, 0xB)
	s.Put("c1", payload)

	got, ok := s.Get("c1")
	require.True(ok)
	require.Equal([]int{0xA, 0xB}, fhetest.DecryptSeq(got))
	require.Equal(1, s.Len())
}

func TestStore_GetMiss(t *testing.T) {
	require := require.New(t)
	s := content.New(time.Minute)

	_, ok := s.Get("missing")
	require.False(ok)
}

// TestStore_Sweep exercises P6: an entry idle for less than ttl is kept,
// and one idle past ttl is evicted.
func TestStore_Sweep(t *testing.T) {
	require := require.New(t)
	ttl := 10 * time.Second
	s := content.New(ttl)

	t0 := time.Now()
	s.Put("c1", fhetest.EncryptSeq(fhe.ArityNibble, 1))

	// Not yet expired.
	evicted := s.Sweep(t0.Add(ttl / 2))
	require.Equal(0, evicted)
	require.Equal(1, s.Len())

	// Past ttl: evicted.
	evicted = s.Sweep(t0.Add(ttl + time.Second))
	require.Equal(1, evicted)
	require.Equal(0, s.Len())

	_, ok := s.Get("c1")
	require.False(ok)
}

func TestStore_ReadExtendsDeadline(t *testing.T) {
	require := require.New(t)
	ttl := 10 * time.Second
	s := content.New(ttl)
	s.Put("c1", fhetest.EncryptSeq(fhe.ArityNibble, 1))
	time.Sleep(20 * time.Millisecond)

	// A Get refreshes last-access to "now" at call time. Sweeping at
	// readAt+ttl is past the ttl window measured from Put (which was at
	// least 20ms earlier) but not past the one measured from the Get.
	readAt := time.Now()
	_, ok := s.Get("c1")
	require.True(ok)

	evicted := s.Sweep(readAt.Add(ttl))
	require.Equal(0, evicted)
}

func TestStore_Overwrite(t *testing.T) {
	require := require.New(t)
	s := content.New(time.Minute)

	s.Put("c1", fhetest.EncryptSeq(fhe.ArityNibble, 1))
	s.Put("c1", fhetest.EncryptSeq(fhe.ArityNibble, 2))

	got, ok := s.Get("c1")
	require.True(ok)
	require.Equal([]int{2}, fhetest.DecryptSeq(got))
	require.Equal(1, s.Len())
}
