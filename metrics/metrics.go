// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics holds the Prometheus instruments of a fetch run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
)

const namespace = "leon_radares"

// Reasons an entry is dropped between normalization and output.
const (
	DroppedEmpty     = "empty"
	DroppedGeo       = "geo"
	DroppedCategory  = "category"
	DroppedWindow    = "window"
	DroppedDuplicate = "duplicate"
)

// Metrics holds the counters and histograms for a run. Every instrument is
// registered on Registry, never on the process default registry.
type Metrics struct {
	Registry *prometheus.Registry

	FetchDuration *prometheus.HistogramVec // labels: source
	FetchBytes    *prometheus.CounterVec   // labels: source
	Records       *prometheus.CounterVec   // labels: source
	Entries       *prometheus.CounterVec   // labels: source
	Dropped       *prometheus.CounterVec   // labels: source, reason
	Failures      *prometheus.CounterVec   // labels: source, kind
	LastSuccess   *prometheus.GaugeVec     // labels: source
}

// New creates the run metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of payload retrieval per source.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"source"}),
		FetchBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_bytes_total",
			Help:      "Payload bytes retrieved per source.",
		}, []string{"source"}),
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Raw records read per source.",
		}, []string{"source"}),
		Entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "Entries written to the artifact per source.",
		}, []string{"source"}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_total",
			Help:      "Records or entries discarded per source and reason.",
		}, []string{"source", "reason"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Retrieval and parse failures per source.",
		}, []string{"source", "kind"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that produced data from the source.",
		}, []string{"source"}),
	}

	m.Registry.MustRegister(
		m.FetchDuration,
		m.FetchBytes,
		m.Records,
		m.Entries,
		m.Dropped,
		m.Failures,
		m.LastSuccess,
	)

	return m
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return eris.Wrapf(err, "writing metrics to %s", path)
	}

	return nil
}
