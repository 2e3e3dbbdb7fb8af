// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"strings"
	"time"

	"github.com/ATorbado/leon-radares/config"
	"github.com/ATorbado/leon-radares/metrics"
	"github.com/ATorbado/leon-radares/normalize"
	"github.com/ATorbado/leon-radares/spatial"
	"github.com/rotisserie/eris"
)

// radiusEpsilonKm absorbs floating point noise at the radius boundary.
const radiusEpsilonKm = 1e-9

// Filter applies the geographic, category and time window predicates of a
// source, in that order.
type Filter struct {
	Geo        config.GeoMode
	Area       string
	Center     spatial.Point
	RadiusKm   float64
	Categories map[normalize.Category]bool // empty accepts any
	Window     config.Window
	Now        time.Time
}

// NewFilter builds the filter of src, evaluated at now.
func NewFilter(src *config.Source, now time.Time) (*Filter, error) {
	f := &Filter{
		Geo:      src.Geo,
		Area:     normalizeArea(src.Area),
		Center:   src.Center,
		RadiusKm: src.RadiusKm,
		Window:   src.Window,
		Now:      now,
	}

	if len(src.Categories) > 0 {
		f.Categories = make(map[normalize.Category]bool, len(src.Categories))

		for _, name := range src.Categories {
			c, err := normalize.ParseCategory(name)
			if err != nil {
				return nil, eris.Wrapf(err, "source %s", src.Name)
			}

			f.Categories[c] = true
		}
	}

	return f, nil
}

// Apply returns the entries passing every predicate, in input order, and the
// number of entries dropped per reason.
func (f *Filter) Apply(entries []*normalize.Entry) ([]*normalize.Entry, map[string]int) {
	kept := make([]*normalize.Entry, 0, len(entries))
	dropped := make(map[string]int)

	for _, e := range entries {
		switch {
		case !f.matchGeo(e):
			dropped[metrics.DroppedGeo]++
		case !f.matchCategory(e):
			dropped[metrics.DroppedCategory]++
		case !f.matchWindow(e):
			dropped[metrics.DroppedWindow]++
		default:
			kept = append(kept, e)
		}
	}

	return kept, dropped
}

// matchGeo records the distance on entries within the radius.
func (f *Filter) matchGeo(e *normalize.Entry) bool {
	switch f.Geo {
	case config.GeoArea:
		return normalizeArea(e.Area) == f.Area
	case config.GeoRadius:
		if e.Point == nil {
			return false
		}

		d := f.Center.DistanceKm(*e.Point)
		if d > f.RadiusKm+radiusEpsilonKm {
			return false
		}

		e.DistanceKm = &d

		return true
	default:
		return true
	}
}

func (f *Filter) matchCategory(e *normalize.Entry) bool {
	return len(f.Categories) == 0 || f.Categories[e.Category]
}

// matchWindow keeps entries of the current month. A YYYY-MM month wins over
// the validity interval; open interval ends extend to the month bounds.
func (f *Filter) matchWindow(e *normalize.Entry) bool {
	if f.Window != config.WindowMonth {
		return true
	}

	now := f.Now.In(normalize.Madrid)

	if e.Month != "" {
		return strings.HasPrefix(strings.TrimSpace(e.Month), now.Format("2006-01"))
	}

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, normalize.Madrid)
	end := start.AddDate(0, 1, 0)

	from, to := start, end
	if e.ValidFrom != nil {
		from = *e.ValidFrom
	}

	if e.ValidTo != nil {
		to = *e.ValidTo
	}

	return from.Before(end) && start.Before(to)
}

// normalizeArea is case-insensitive but keeps accents: LEON is not LEÓN.
func normalizeArea(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
