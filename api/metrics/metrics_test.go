// Copyright (C) 2020-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/fhedoc/api/metrics"
)

func TestNewMetrics_RegistersAllCollectors(t *testing.T) {
	require := require.New(t)
	reg := metrics.NewRegistry()

	m, err := metrics.NewMetrics("fhedoc_test", reg)
	require.NoError(err)

	m.UpdatesApplied().Inc()
	m.UpdatesDropped().Inc()
	m.KeyInstalls().Inc()
	m.ActiveSubscribers().Set(3)
	m.ContentEvictions().Add(2)

	require.Equal(float64(1), testutil.ToFloat64(m.UpdatesApplied()))
	require.Equal(float64(1), testutil.ToFloat64(m.UpdatesDropped()))
	require.Equal(float64(1), testutil.ToFloat64(m.KeyInstalls()))
	require.Equal(float64(3), testutil.ToFloat64(m.ActiveSubscribers()))
	require.Equal(float64(2), testutil.ToFloat64(m.ContentEvictions()))
}

func TestNewMetrics_DuplicateNamespaceFailsToRegister(t *testing.T) {
	require := require.New(t)
	reg := metrics.NewRegistry()

	_, err := metrics.NewMetrics("fhedoc_dup", reg)
	require.NoError(err)

	_, err = metrics.NewMetrics("fhedoc_dup", reg)
	require.Error(err)
}
