// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdir(t *testing.T, dir string) {
	t.Helper()

	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.InDelta(t, LeonLat, cfg.Reference.Lat, 1e-9)
	assert.InDelta(t, LeonLng, cfg.Reference.Lng, 1e-9)
	assert.InDelta(t, 12.0, cfg.Reference.RadiusKm, 1e-9)
	assert.Equal(t, "LEÓN", cfg.Reference.Area)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Kafka.Brokers)

	catalog := cfg.Catalog()
	require.Len(t, catalog, len(defaultSources))

	datex, err := catalog.Find("dgt-datex")
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, datex.Timeout)
	assert.Equal(t, "radars/radares_fijos_urbanos_leon.json", datex.Output)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yaml := `
output_dir: /srv/feeds
log:
  level: debug
  format: json
reference:
  radius_km: 5
sources:
  dgt-puntos:
    url: https://example.org/radares.xlsx
    timeout: 15s
  ayto-avisos:
    disabled: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leon-radares.yaml"), []byte(yaml), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/srv/feeds", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.Log.Level)

	catalog := cfg.Catalog()
	assert.Len(t, catalog, len(defaultSources)-1)

	_, err = catalog.Find("ayto-avisos")
	require.ErrorIs(t, err, errSourceNotFound)

	puntos, err := catalog.Find("dgt-puntos")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/radares.xlsx", puntos.URL)
	assert.Equal(t, 15*time.Second, puntos.Timeout)

	datex, err := catalog.Find("dgt-datex")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, datex.RadiusKm, 1e-9)
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LEONRADARES_LOG_LEVEL", "warn")
	t.Setenv("LEONRADARES_SOURCES_RADARES_FEED_URL", "file://feed.geojson")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)

	feed, err := cfg.Catalog().Find("radares-feed")
	require.NoError(t, err)
	assert.Equal(t, "file://feed.geojson", feed.URL)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "json"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.Error(t, InitLogger(LogConfig{Level: "loud", Format: "console"}))
}

func TestFind(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		expectedName string
		expectErr    error
	}{
		{name: "ExactMatch", query: "cortes", expectedName: "cortes"},
		{name: "CaseInsensitive", query: "DGT-Datex", expectedName: "dgt-datex"},
		{name: "PrefixMatch", query: "ayto", expectedName: "ayto-avisos"},
		{name: "NoMatch", query: "xxx", expectErr: errSourceNotFound},
		{name: "MultipleMatches", query: "dgt", expectErr: errMultipleMatches},
	}

	catalog := DefaultCatalog()

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := catalog.Find(tc.query)
			if tc.expectErr != nil {
				require.ErrorIs(t, err, tc.expectErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedName, got.Name)
		})
	}
}

func TestDefaultCatalogIsValid(t *testing.T) {
	names := map[string]bool{}

	err := DefaultCatalog().Each(func(src Source) error {
		assert.False(t, names[src.Name], "duplicated source %s", src.Name)
		names[src.Name] = true

		return src.Validate()
	})
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := Source{Name: "x", Kind: "feed", Output: "x.json", Geo: GeoNone, Format: FormatList}

	tests := []struct {
		name   string
		mutate func(*Source)
		ok     bool
	}{
		{"Valid", func(*Source) {}, true},
		{"NoName", func(s *Source) { s.Name = "" }, false},
		{"AreaWithoutArea", func(s *Source) { s.Geo = GeoArea }, false},
		{"RadiusWithoutRadius", func(s *Source) { s.Geo = GeoRadius }, false},
		{"UnknownFormat", func(s *Source) { s.Format = "csv" }, false},
		{"UnknownWindow", func(s *Source) { s.Window = "week" }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := valid
			tc.mutate(&src)

			err := src.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
