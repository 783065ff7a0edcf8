// Copyright (C) 2020-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics wires the coordinator's counters into a prometheus
// registry, the same way the teacher's Metrics interface wires consensus
// counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is an interface for a prometheus registry.
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// NewRegistry creates a new prometheus registry.
func NewRegistry() Registry {
	return prometheus.NewRegistry()
}

// Metrics is the interface for coordinator metrics.
type Metrics interface {
	// UpdatesApplied counts successfully applied client updates.
	UpdatesApplied() prometheus.Counter
	// UpdatesDropped counts updates dropped (no EK, malformed input).
	UpdatesDropped() prometheus.Counter
	// KeyInstalls counts successful evaluation-key installs.
	KeyInstalls() prometheus.Counter
	// ActiveSubscribers reports the current subscriber count across all
	// rooms.
	ActiveSubscribers() prometheus.Gauge
	// ContentEvictions counts content records removed by the TTL sweep.
	ContentEvictions() prometheus.Counter
}

// NewMetrics creates a new Metrics instance registered under namespace.
func NewMetrics(namespace string, registerer prometheus.Registerer) (Metrics, error) {
	m := &metrics{
		updatesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_applied_total",
			Help:      "Number of client updates successfully applied.",
		}),
		updatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_dropped_total",
			Help:      "Number of client updates dropped (no key installed or malformed input).",
		}),
		keyInstalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_installs_total",
			Help:      "Number of successful evaluation-key installs.",
		}),
		activeSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_subscribers",
			Help:      "Number of currently attached WebSocket subscribers.",
		}),
		contentEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_evictions_total",
			Help:      "Number of content records evicted by the TTL sweep.",
		}),
	}

	collectors := []prometheus.Collector{
		m.updatesApplied, m.updatesDropped, m.keyInstalls,
		m.activeSubscribers, m.contentEvictions,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type metrics struct {
	updatesApplied    prometheus.Counter
	updatesDropped    prometheus.Counter
	keyInstalls       prometheus.Counter
	activeSubscribers prometheus.Gauge
	contentEvictions  prometheus.Counter
}

func (m *metrics) UpdatesApplied() prometheus.Counter   { return m.updatesApplied }
func (m *metrics) UpdatesDropped() prometheus.Counter   { return m.updatesDropped }
func (m *metrics) KeyInstalls() prometheus.Counter      { return m.keyInstalls }
func (m *metrics) ActiveSubscribers() prometheus.Gauge  { return m.activeSubscribers }
func (m *metrics) ContentEvictions() prometheus.Counter { return m.contentEvictions }
