// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"strings"
	"testing"
	"time"

	"github.com/ATorbado/leon-radares/config"
	"github.com/ATorbado/leon-radares/normalize"
	"github.com/ATorbado/leon-radares/spatial"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleEntries() []*normalize.Entry {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	return []*normalize.Entry{
		{
			ID:          "r1",
			Category:    normalize.FixedEnforcement,
			Type:        "FIJO",
			Description: "Av. Madrid",
			Point:       &spatial.Point{Lat: 42.6, Lng: -5.57},
			DistanceKm:  ptr(0.2987),
			SpeedLimit:  ptr(50.0),
			LastUpdate:  now,
		},
		{
			ID:          "c1",
			Category:    normalize.Closure,
			Description: "Corte de tráfico en Avda. Padre Isla <obras>",
			LastUpdate:  now,
		},
	}
}

func TestRenderList(t *testing.T) {
	data, err := Render(sampleEntries(), config.FormatList)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"dist_km_leon": 0.3`)
	assert.Contains(t, string(data), "<obras>", "html must not be escaped")
	assert.Contains(t, string(data), "\n  {", "two space indentation")

	records, err := DecodeList(data)
	require.NoError(t, err)

	want := []Record{
		{
			ID:          "r1",
			Type:        "FIJO",
			Category:    "fixed_enforcement",
			Description: "Av. Madrid",
			SpeedLimit:  ptr(50.0),
			Lat:         ptr(42.6),
			Lon:         ptr(-5.57),
			DistanceKm:  ptr(0.3),
			LastUpdate:  "2025-03-14T10:00:00Z",
		},
		{
			ID:          "c1",
			Type:        "Corte",
			Category:    "closure",
			Description: "Corte de tráfico en Avda. Padre Isla <obras>",
			LastUpdate:  "2025-03-14T10:00:00Z",
		},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderSourceKeys(t *testing.T) {
	catalog := config.DefaultCatalog()

	datex, err := catalog.Find("dgt-datex")
	require.NoError(t, err)

	data, err := RenderSource(sampleEntries()[:1], datex)
	require.NoError(t, err)

	got := string(data)
	assert.Contains(t, got, `"calle": "Av. Madrid"`)
	assert.NotContains(t, got, `"descripcion"`)
	assert.Contains(t, got, `"dist_km_leon": 0.3`)
	assert.Less(t, strings.Index(got, `"id"`), strings.Index(got, `"calle"`), "field order is kept")
	assert.Less(t, strings.Index(got, `"calle"`), strings.Index(got, `"lat"`), "field order is kept")

	puntos, err := catalog.Find("dgt-puntos")
	require.NoError(t, err)

	e := &normalize.Entry{
		ID:          "N-601-12-C",
		Category:    normalize.FixedEnforcement,
		Type:        "FIJO",
		Description: "N-601 PK 12",
		Area:        "LEÓN",
		Road:        "N-601",
		Segment:     "12",
		Direction:   "Creciente",
		Authority:   "DGT",
	}

	data, err = RenderSource([]*normalize.Entry{e}, puntos)
	require.NoError(t, err)

	got = string(data)
	assert.Contains(t, got, `"pk_km": "12"`)
	assert.Contains(t, got, `"source": "DGT"`)
	assert.Contains(t, got, `"provincia": "LEÓN"`)
	assert.NotContains(t, got, `"pk"`)
	assert.NotContains(t, got, `"autoridad"`)
	assert.Contains(t, got, "\n  {", "two space indentation")

	plain, err := RenderSource([]*normalize.Entry{e}, &config.Source{Format: config.FormatList})
	require.NoError(t, err)
	assert.Contains(t, string(plain), `"pk": "12"`)
}

func TestRenderEmpty(t *testing.T) {
	tests := []struct {
		format config.Format
		want   string
	}{
		{config.FormatList, "[]\n"},
		{config.FormatGeoJSON, "{\n  \"type\": \"FeatureCollection\",\n  \"features\": []\n}\n"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			data, err := Render(nil, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(nil, "kml")
	assert.Error(t, err)
}

func TestFeatureCollectionRoundTrip(t *testing.T) {
	entries := sampleEntries()

	data, err := Render(entries, config.FormatGeoJSON)
	require.NoError(t, err)

	fc, err := DecodeFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, len(entries))

	coords, ok, err := fc.Features[0].Coordinates()
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, -5.57, coords[0], 1e-9)
	assert.InDelta(t, 42.6, coords[1], 1e-9)
	assert.NotEmpty(t, fc.Features[0].Properties.H3)
	assert.Equal(t, "r1", fc.Features[0].Properties.ID)

	_, ok, err = fc.Features[1].Coordinates()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, fc.Features[1].Geometry)
	assert.Empty(t, fc.Features[1].Properties.H3)
	assert.True(t, strings.Contains(fc.Features[1].Properties.Description, "Corte"))
}

func TestNullGeometryIsEncoded(t *testing.T) {
	data, err := Render(sampleEntries()[1:], config.FormatGeoJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"geometry": null`)
}

func TestDecodeFeatureCollectionRejectsOtherTypes(t *testing.T) {
	_, err := DecodeFeatureCollection([]byte(`{"type":"Feature"}`))
	assert.Error(t, err)

	_, err = DecodeFeatureCollection([]byte(`not json`))
	assert.Error(t, err)
}

func TestFormatTime(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, normalize.Madrid)
	at := time.Date(2025, 3, 1, 8, 30, 0, 0, normalize.Madrid)

	assert.Equal(t, "", formatTime(nil))
	assert.Equal(t, "2025-03-01", formatTime(&day))
	assert.Equal(t, "2025-03-01T08:30:00+01:00", formatTime(&at))
}
