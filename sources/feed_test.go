// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedReader(t *testing.T) {
	doc := `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-5.57, 42.60]},
     "properties": {"tipo": "FIJO", "velocidad": 50, "activo": true, "nota": null, "extra": {"a": [1, 2]}}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-5.57]}, "properties": {"tipo": "FIJO"}},
    {"type": "Feature", "geometry": null, "properties": {"tipo": "FIJO"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": ["-5,55", "42,61"]}, "properties": {}}
  ]
}`

	got, err := FeedReader{}.Read(Payload{Body: []byte(doc)})
	require.NoError(t, err)

	want := []Record{
		{
			"tipo":               "FIJO",
			"velocidad":          "50",
			"activo":             "true",
			"extra":              `{"a":[1,2]}`,
			KeyGeometryLongitude: "-5.57",
			KeyGeometryLatitude:  "42.60",
		},
		{
			KeyGeometryLongitude: "-5,55",
			KeyGeometryLatitude:  "42,61",
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestFeedReader_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"NotJSON", "<features/>"},
		{"Truncated", `{"features": [`},
		{"NoFeatures", `{"type": "FeatureCollection"}`},
		{"NullFeatures", `{"features": null}`},
		{"Array", `[{"tipo": "FIJO"}]`},
		{"FeaturesNotList", `{"features": {"a": 1}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FeedReader{}.Read(Payload{Body: []byte(tc.doc)})
			require.Error(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestFeedReader_EmptyCollection(t *testing.T) {
	got, err := FeedReader{}.Read(Payload{Body: []byte(`{"type":"FeatureCollection","features":[]}`)})
	require.NoError(t, err)
	assert.Empty(t, got)
}
