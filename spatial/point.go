// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

// Package spatial holds the geographic primitives shared by the pipeline.
package spatial

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strings"

	"github.com/uber/h3-go/v4"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewPoint returns a point when both coordinates are present and inside the
// WGS84 bounds, nil otherwise. Coordinates travel together or not at all.
func NewPoint(lat, lng *float64) *Point {
	if lat == nil || lng == nil {
		return nil
	}

	if err := Validate(*lat, *lng); err != nil {
		return nil
	}

	return &Point{Lat: *lat, Lng: *lng}
}

// Validate checks the coordinate bounds.
func Validate(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90 (got %f)", lat)
	}

	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180 (got %f)", lng)
	}

	return nil
}

// String returns the WKT representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Value implements the driver.Valuer interface for database serialization.
func (p Point) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (p *Point) Scan(value any) error {
	var s string

	switch v := value.(type) {
	case nil:
		p.Lat, p.Lng = 0, 0

		return nil
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("spatial: unsupported type for Point scan: %T", value)
	}

	// DuckDB renders "POINT (lng lat)", we render "POINT(lng lat)"
	s = strings.Replace(s, "POINT (", "POINT(", 1)
	_, err := fmt.Sscanf(s, "POINT(%f %f)", &p.Lng, &p.Lat)

	return err
}

// DistanceKm calculates the great-circle distance between two points in
// kilometers.
func (p Point) DistanceKm(other Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Round rounds to the given number of decimal places.
func Round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))

	return math.Round(v*pow) / pow
}

// Key renders the point rounded to five decimals (~1 m), the precision at
// which two entries are considered to be at the same place. Values that round
// to zero share the key regardless of their sign.
func (p Point) Key() string {
	return fmt.Sprintf("%.5f|%.5f", keyCoord(p.Lat), keyCoord(p.Lng))
}

func keyCoord(v float64) float64 {
	v = Round(v, 5)
	if v == 0 {
		return 0 // drops the sign of -0
	}

	return v
}

// H3Cell returns the H3 index of the point at the given resolution.
func (p Point) H3Cell(res int) (string, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), res)
	if err != nil {
		return "", fmt.Errorf("h3 cell for %s: %w", p, err)
	}

	return cell.String(), nil
}
