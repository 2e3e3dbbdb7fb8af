// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesPrivateRegistry(t *testing.T) {
	// two instances must not collide
	a, b := New(), New()

	a.Dropped.WithLabelValues("dgt-datex", DroppedGeo).Add(3)
	b.Dropped.WithLabelValues("dgt-datex", DroppedGeo).Inc()

	assert.InDelta(t, 3.0, testutil.ToFloat64(a.Dropped.WithLabelValues("dgt-datex", DroppedGeo)), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(b.Dropped.WithLabelValues("dgt-datex", DroppedGeo)), 0)
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Failures.WithLabelValues("radares-feed", "retrieval").Inc()
	m.Entries.WithLabelValues("dgt-datex").Add(7)

	path := filepath.Join(t.TempDir(), "leon.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `leon_radares_source_failures_total{kind="retrieval",source="radares-feed"} 1`)
	assert.Contains(t, string(data), `leon_radares_entries_total{source="dgt-datex"} 7`)
}

func TestWriteTextfileBadPath(t *testing.T) {
	m := New()
	assert.Error(t, m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom")))
}
