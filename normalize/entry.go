// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

// Package normalize maps source-native records into the canonical Entry.
package normalize

import (
	"fmt"
	"time"

	"github.com/ATorbado/leon-radares/spatial"
)

// Category is the controlled vocabulary every emitted entry is tagged with.
type Category string

// Known categories.
const (
	FixedEnforcement   Category = "fixed_enforcement"
	SegmentEnforcement Category = "segment_enforcement"
	Closure            Category = "closure"
	Unknown            Category = "unknown"
)

var categoryLabels = map[Category]string{
	FixedEnforcement:   "Fijo",
	SegmentEnforcement: "Tramo",
	Closure:            "Corte",
	Unknown:            "Desconocido",
}

// Label returns the Spanish label used by the downstream map.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}

	return categoryLabels[Unknown]
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := categoryLabels[c]; !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}

	return c, nil
}

// Entry is the canonical, source-independent record.
type Entry struct {
	ID          string
	Category    Category
	Type        string // raw type text as published by the source
	Description string
	Point       *spatial.Point
	Road        string
	Segment     string // kilometer post
	Direction   string
	SpeedLimit  *float64
	Area        string // uppercased, accents preserved
	Authority   string
	SourceURL   string
	LastUpdate  time.Time
	DistanceKm  *float64 // only set by radius filtering
	ValidFrom   *time.Time
	ValidTo     *time.Time
	Month       string // YYYY-MM
	TimeBand    string
}

// DedupKey identifies entries describing the same thing at the same place.
func (e *Entry) DedupKey() string {
	if e.Point == nil {
		return "-|-|" + e.Description
	}

	return e.Point.Key() + "|" + e.Description
}
