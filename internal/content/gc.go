// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package content

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luxfi/fhedoc/log"
)

// GC runs the periodic TTL sweep of a Store as a cancellable background
// loop, the way networking/handler.NotificationForwarder runs its
// cancellable forwarding loop: a Start/Stop pair guarding a context and
// a WaitGroup rather than an ad-hoc goroutine the caller has no handle
// on.
type GC struct {
	Store     *Store
	Interval  time.Duration
	OnEvicted func(n int)
	Log       log.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	executing sync.WaitGroup
	started   bool
}

// Start begins the sweep loop. A second Start before Stop is a no-op.
func (g *GC) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return
	}
	g.started = true

	var ctx context.Context
	ctx, g.cancel = context.WithCancel(context.Background())
	g.executing.Add(1)
	go g.run(ctx)
}

// Stop cancels the sweep loop and waits for it to exit. The GC task
// runs for the life of the process in normal operation; Stop exists for
// test teardown and graceful shutdown.
func (g *GC) Stop() {
	g.mu.Lock()
	if !g.started {
		g.mu.Unlock()
		return
	}
	g.started = false
	if g.cancel != nil {
		g.cancel()
	}
	g.mu.Unlock()
	g.executing.Wait()
}

func (g *GC) run(ctx context.Context) {
	defer g.executing.Done()
	ticker := time.NewTicker(g.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n := g.Store.Sweep(now)
			if n == 0 {
				continue
			}
			if g.Log != nil {
				g.Log.Debug("content gc swept expired entries", zap.Int("count", n))
			}
			if g.OnEvicted != nil {
				g.OnEvicted(n)
			}
		}
	}
}
