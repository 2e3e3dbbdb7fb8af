// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var leon = Point{Lat: 42.598726, Lng: -5.567095}

func ptr(f float64) *float64 { return &f }

func TestDistanceKm(t *testing.T) {
	kmPerDegree := EarthRadiusKm * math.Pi / 180

	tests := []struct {
		name  string
		other Point
		want  float64
	}{
		{"Self", leon, 0},
		{"TwelveKmNorth", Point{Lat: leon.Lat + 12/kmPerDegree, Lng: leon.Lng}, 12},
		{"OneDegreeSouth", Point{Lat: leon.Lat - 1, Lng: leon.Lng}, kmPerDegree},
		{"NearbyFeedPoint", Point{Lat: 42.60, Lng: -5.57}, 0.28},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, leon.DistanceKm(tc.other), 0.01)
		})
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	other := Point{Lat: 40.4168, Lng: -3.7038}
	assert.InDelta(t, leon.DistanceKm(other), other.DistanceKm(leon), 1e-9)
}

func TestNewPoint(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng *float64
		want     *Point
	}{
		{"Valid", ptr(42.6), ptr(-5.57), &Point{Lat: 42.6, Lng: -5.57}},
		{"MissingLat", nil, ptr(-5.57), nil},
		{"MissingLng", ptr(42.6), nil, nil},
		{"LatOutOfRange", ptr(91), ptr(-5.57), nil},
		{"LngOutOfRange", ptr(42.6), ptr(-181), nil},
		{"NaN", ptr(math.NaN()), ptr(0), nil},
		{"Bounds", ptr(-90), ptr(180), &Point{Lat: -90, Lng: 180}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewPoint(tc.lat, tc.lng))
		})
	}
}

func TestRoundAndKey(t *testing.T) {
	assert.InDelta(t, 0.28, Round(0.27812, 2), 1e-12)
	assert.Equal(t, "42.59872|-5.56709", Point{Lat: 42.598721, Lng: -5.567091}.Key())
	assert.Equal(t, "43.10000|0.00000", Point{Lat: 43.1, Lng: -0.000001}.Key())
	assert.Equal(t, Point{Lat: 43.1, Lng: -0.000001}.Key(), Point{Lat: 43.1, Lng: 0.000001}.Key())
	assert.Equal(t, Point{Lat: -0.000004, Lng: 1}.Key(), Point{Lat: 0.000004, Lng: 1}.Key())
}

func TestScan(t *testing.T) {
	var p Point

	require.NoError(t, p.Scan("POINT (-5.567095 42.598726)"))
	assert.InDelta(t, leon.Lat, p.Lat, 1e-9)
	assert.InDelta(t, leon.Lng, p.Lng, 1e-9)

	require.NoError(t, p.Scan([]byte(leon.String())))
	assert.InDelta(t, leon.Lat, p.Lat, 1e-6)

	require.Error(t, p.Scan(42))
}

func TestH3Cell(t *testing.T) {
	cell, err := leon.H3Cell(9)
	require.NoError(t, err)
	assert.Len(t, cell, 15)

	same, err := Point{Lat: leon.Lat + 1e-6, Lng: leon.Lng}.H3Cell(9)
	require.NoError(t, err)
	assert.Equal(t, cell, same)
}
