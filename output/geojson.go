// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"

	"github.com/ATorbado/leon-radares/normalize"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// H3Resolution is the resolution of the h3 feature property (~0.1 km²).
const H3Resolution = 9

// FeatureCollection is the GeoJSON artifact.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// Feature is one GeoJSON feature. A nil Geometry is encoded as null.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties Properties        `json:"properties"`
}

// Properties of a feature: the flat record plus the H3 cell of the geometry.
type Properties struct {
	Record
	H3 string `json:"h3,omitempty"`
}

// NewFeature builds the feature for e.
func NewFeature(e *normalize.Entry) (*Feature, error) {
	f := &Feature{
		Type:       "Feature",
		Properties: Properties{Record: NewRecord(e)},
	}

	if e.Point == nil {
		return f, nil
	}

	g, err := geojson.Encode(geom.NewPointFlat(geom.XY, []float64{e.Point.Lng, e.Point.Lat}))
	if err != nil {
		return nil, eris.Wrapf(err, "encoding geometry of %s", e.ID)
	}

	f.Geometry = g

	if f.Properties.H3, err = e.Point.H3Cell(H3Resolution); err != nil {
		return nil, eris.Wrapf(err, "h3 cell of %s", e.ID)
	}

	return f, nil
}

// NewFeatureCollection builds a collection with one feature per entry, in order.
func NewFeatureCollection(entries []*normalize.Entry) (*FeatureCollection, error) {
	fc := &FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]*Feature, 0, len(entries)),
	}

	for _, e := range entries {
		f, err := NewFeature(e)
		if err != nil {
			return nil, err
		}

		fc.Features = append(fc.Features, f)
	}

	return fc, nil
}

// Coordinates returns the [lon, lat] of a point feature, or false when the
// geometry is null or not a point.
func (f *Feature) Coordinates() ([]float64, bool, error) {
	if f.Geometry == nil {
		return nil, false, nil
	}

	g, err := f.Geometry.Decode()
	if err != nil {
		return nil, false, eris.Wrap(err, "decoding geometry")
	}

	p, ok := g.(*geom.Point)
	if !ok {
		return nil, false, nil
	}

	return p.Coords(), true, nil
}

// DecodeFeatureCollection parses a GeoJSON artifact.
func DecodeFeatureCollection(data []byte) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "decoding feature collection")
	}

	if fc.Type != "FeatureCollection" {
		return nil, eris.Errorf("unexpected GeoJSON type %q", fc.Type)
	}

	return &fc, nil
}

// DecodeList parses a flat list artifact.
func DecodeList(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrap(err, "decoding list")
	}

	return records, nil
}
