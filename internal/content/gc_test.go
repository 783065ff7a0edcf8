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
	"github.com/luxfi/fhedoc/log"
)

func TestGC_SweepsOnInterval(t *testing.T) {
	require := require.New(t)
	s := content.New(20 * time.Millisecond)
	s.Put("c1", fhetest.EncryptSeq(fhe.ArityNibble, 1))

	evicted := make(chan int, 4)
	gc := &content.GC{
		Store:     s,
		Interval:  10 * time.Millisecond,
		Log:       log.NewNoOpLogger(),
		OnEvicted: func(n int) { evicted <- n },
	}
	gc.Start()
	defer gc.Stop()

	select {
	case n := <-evicted:
		require.Equal(1, n)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for GC sweep")
	}
	require.Equal(0, s.Len())
}

func TestGC_StartIsIdempotent(t *testing.T) {
	gc := &content.GC{
		Store:    content.New(time.Second),
		Interval: time.Second,
		Log:      log.NewNoOpLogger(),
	}
	gc.Start()
	gc.Start() // must not spawn a second loop or panic
	gc.Stop()
}

func TestGC_StopBeforeStartIsNoop(t *testing.T) {
	gc := &content.GC{Store: content.New(time.Second), Interval: time.Second}
	gc.Stop() // must not block or panic
}
