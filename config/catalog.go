// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/ATorbado/leon-radares/spatial"
)

// Reference values for León.
const (
	LeonLat         = 42.598726
	LeonLng         = -5.567095
	DefaultRadiusKm = 12.0
	DefaultArea     = "LEÓN"
)

var (
	errMultipleMatches = errors.New("multiple matches")
	errSourceNotFound  = errors.New("source not found")
)

// GeoMode selects how a source is geographically constrained.
type GeoMode string

// Supported geo modes.
const (
	GeoNone   GeoMode = "none"
	GeoArea   GeoMode = "area"
	GeoRadius GeoMode = "radius"
)

// Format selects the artifact shape.
type Format string

// Supported artifact formats.
const (
	FormatList    Format = "list"
	FormatGeoJSON Format = "geojson"
)

// Window restricts entries to a time window relative to the run.
type Window string

// Supported windows.
const (
	WindowNone  Window = ""
	WindowMonth Window = "month"
)

// Source describes one independent pipeline run: where the payload comes
// from, how to read it and which artifact to produce.
type Source struct {
	Name        string        // Unique name, also used in metrics labels
	Kind        string        // Reader and mapping table to use
	Description string        // Human readable summary
	URL         string        // http(s):// or file:// location of the payload
	Timeout     time.Duration // Bound for the retrieval
	Geo         GeoMode
	Area        string        // Target administrative area for GeoArea
	Center      spatial.Point // Reference point for GeoRadius
	RadiusKm    float64       // Inclusive threshold for GeoRadius
	Categories  []string      // Accepted categories, empty accepts any
	Window      Window
	Format      Format
	Output      string // Artifact path, relative to the output directory
	Authority   string // Issuing authority stamped on every entry
	IDPrefix    string // Prefix for synthesized ids
	Mapping     string // Mapping table name, defaults to Kind
	// Keys renames flat list keys (canonical name to the name the
	// artifact's consumer reads).
	Keys map[string]string
}

// MappingName returns the mapping table the source is normalized with.
func (s *Source) MappingName() string {
	if s.Mapping != "" {
		return s.Mapping
	}

	return s.Kind
}

// Validate checks that the source is internally consistent.
func (s *Source) Validate() error {
	if s.Name == "" {
		return errors.New("source: name must not be empty")
	}

	if s.Kind == "" {
		return fmt.Errorf("source %q: kind must not be empty", s.Name)
	}

	if s.Output == "" {
		return fmt.Errorf("source %q: output must not be empty", s.Name)
	}

	switch s.Geo {
	case GeoNone:
	case GeoArea:
		if strings.TrimSpace(s.Area) == "" {
			return fmt.Errorf("source %q: area mode requires an area", s.Name)
		}
	case GeoRadius:
		if s.RadiusKm <= 0 {
			return fmt.Errorf("source %q: radius mode requires a positive radius", s.Name)
		}

		if err := spatial.Validate(s.Center.Lat, s.Center.Lng); err != nil {
			return fmt.Errorf("source %q: center: %w", s.Name, err)
		}
	default:
		return fmt.Errorf("source %q: unknown geo mode %q", s.Name, s.Geo)
	}

	switch s.Format {
	case FormatList, FormatGeoJSON:
	default:
		return fmt.Errorf("source %q: unknown format %q", s.Name, s.Format)
	}

	switch s.Window {
	case WindowNone, WindowMonth:
	default:
		return fmt.Errorf("source %q: unknown window %q", s.Name, s.Window)
	}

	return nil
}

var leon = spatial.Point{Lat: LeonLat, Lng: LeonLng}

// All the sources the pipeline knows about.
var defaultSources = []Source{
	{
		Name:        "dgt-puntos",
		Kind:        "tabular",
		Description: "DGT puntos y tramos de control de velocidad (hoja de cálculo)",
		// The direct link to the spreadsheet changes with every publication
		// and must be provided through configuration.
		URL:        "",
		Timeout:    60 * time.Second,
		Geo:        GeoArea,
		Area:       DefaultArea,
		Categories: []string{"fixed_enforcement", "segment_enforcement"},
		Format:     FormatList,
		Output:     "radars/radares_dgt_leon.json",
		Authority:  "DGT",
		IDPrefix:   "dgt",
		Keys:       map[string]string{"pk": "pk_km", "autoridad": "source"},
	},
	{
		Name:        "dgt-datex",
		Kind:        "datex",
		Description: "DGT infocar DATEX2 PredefinedLocationsPublication de radares",
		URL:         "http://infocar.dgt.es/datex2/dgt/PredefinedLocationsPublication/radares/content.xml",
		Timeout:     60 * time.Second,
		Geo:         GeoRadius,
		Center:      leon,
		RadiusKm:    DefaultRadiusKm,
		Categories:  []string{"fixed_enforcement"},
		Format:      FormatList,
		Output:      "radars/radares_fijos_urbanos_leon.json",
		Authority:   "DGT",
		IDPrefix:    "datex",
		Keys:        map[string]string{"descripcion": "calle"},
	},
	{
		Name:        "radares-feed",
		Kind:        "feed",
		Description: "Capa GeoJSON de radares",
		URL:         "",
		Timeout:     30 * time.Second,
		Geo:         GeoRadius,
		Center:      leon,
		RadiusKm:    DefaultRadiusKm,
		Categories:  []string{"fixed_enforcement", "segment_enforcement"},
		Format:      FormatGeoJSON,
		Output:      "radars/radares_feed_leon.geojson",
		IDPrefix:    "feed",
	},
	{
		Name:        "ayto-avisos",
		Kind:        "avisos",
		Description: "Avisos de cortes y restricciones del Ayuntamiento de León",
		URL:         "https://www.aytoleon.es/es/actualidad/avisos/Paginas/default.aspx",
		Timeout:     30 * time.Second,
		Geo:         GeoNone,
		Format:      FormatGeoJSON,
		Output:      "closures/calles_cortadas.geojson",
		Authority:   "Ayto León",
		IDPrefix:    "ayto",
	},
	{
		Name:        "cortes",
		Kind:        "list",
		Description: "Cortes de tráfico del mes en curso (fichero local)",
		URL:         "file://closures/cortes_source.json",
		Timeout:     10 * time.Second,
		Geo:         GeoNone,
		Window:      WindowMonth,
		Format:      FormatList,
		Output:      "radars/latest/cortes.json",
		Authority:   "DGT",
		IDPrefix:    "corte",
		Mapping:     "cortes",
	},
	{
		Name:        "controles",
		Kind:        "list",
		Description: "Controles oficiales del mes en curso (fichero local)",
		URL:         "file://radars/manual/controles_oficiales.json",
		Timeout:     10 * time.Second,
		Geo:         GeoNone,
		Window:      WindowMonth,
		Format:      FormatList,
		Output:      "radars/latest/controles.json",
		Authority:   "Policía Local",
		IDPrefix:    "control",
		Mapping:     "controles",
	},
}

// Catalog is an ordered list of sources.
type Catalog []Source

// DefaultCatalog returns a copy of the built-in sources.
func DefaultCatalog() Catalog {
	ret := make(Catalog, len(defaultSources))
	for i, src := range defaultSources {
		src.Categories = append([]string(nil), src.Categories...)
		src.Keys = maps.Clone(src.Keys)
		ret[i] = src
	}

	return ret
}

// Catalog returns the built-in sources with the configured overrides and
// reference point applied. Disabled sources are left out.
func (c *Config) Catalog() Catalog {
	ret := make(Catalog, 0, len(defaultSources))

	for _, src := range DefaultCatalog() {
		if src.Geo == GeoRadius {
			if c.Reference.Lat != 0 || c.Reference.Lng != 0 {
				src.Center = spatial.Point{Lat: c.Reference.Lat, Lng: c.Reference.Lng}
			}

			if c.Reference.RadiusKm > 0 {
				src.RadiusKm = c.Reference.RadiusKm
			}
		}

		if src.Geo == GeoArea && c.Reference.Area != "" {
			src.Area = c.Reference.Area
		}

		if o, ok := c.Sources[src.Name]; ok {
			if o.Disabled {
				continue
			}

			if o.URL != "" {
				src.URL = o.URL
			}

			if o.Timeout > 0 {
				src.Timeout = o.Timeout
			}

			if o.Output != "" {
				src.Output = o.Output
			}

			if o.RadiusKm > 0 {
				src.RadiusKm = o.RadiusKm
			}

			if o.Area != "" {
				src.Area = o.Area
			}
		}

		ret = append(ret, src)
	}

	return ret
}

// Find looks a source up by name. The query matches case-insensitively as a
// prefix; an exact name always wins over prefixes.
func (c Catalog) Find(q string) (*Source, error) {
	if q == "" {
		return nil, errors.New("empty search query")
	}

	for i := range c {
		if strings.EqualFold(c[i].Name, q) {
			src := c[i]

			return &src, nil
		}
	}

	var found *Source

	for i := range c {
		if len(c[i].Name) >= len(q) && strings.EqualFold(c[i].Name[:len(q)], q) {
			if found != nil {
				return nil, fmt.Errorf("%w for %q: %q, %q", errMultipleMatches, q, found.Name, c[i].Name)
			}

			src := c[i]
			found = &src
		}
	}

	if found == nil {
		return nil, fmt.Errorf("%w: %q", errSourceNotFound, q)
	}

	return found, nil
}

// Each calls callback for every source, stopping at the first error.
func (c Catalog) Each(callback func(Source) error) error {
	for i := range c {
		if err := callback(c[i]); err != nil {
			return err
		}
	}

	return nil
}
