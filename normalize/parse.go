// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Europe/Madrid without relying on the host zoneinfo
)

var errNotFinite = errors.New("not a finite number")

// ParseOrAbsent applies parse to raw and returns nil when raw is blank or the
// parse fails. Optional fields never turn a coercion problem into an error.
func ParseOrAbsent[T any](raw string, parse func(string) (T, error)) *T {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	v, err := parse(raw)
	if err != nil {
		return nil
	}

	return &v
}

// Decimal parses a decimal number accepting a comma as decimal separator.
func Decimal(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}

	return f, nil
}

// Madrid is the zone local dates are interpreted in.
var Madrid = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		return time.FixedZone("CET", 3600)
	}

	return loc
}()

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"02/01/2006",
}

// Timestamp parses RFC 3339 timestamps, and local dates or date-times which
// are read in Europe/Madrid.
func Timestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	var err error

	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, Madrid); err == nil {
			return t, nil
		}
	}

	return time.Time{}, err
}
