// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"fmt"
	"strings"

	"github.com/ATorbado/leon-radares/sources"
	"github.com/ATorbado/leon-radares/utils/textutils"
)

// Field is a canonical field name.
type Field string

// Canonical fields a mapping can resolve.
const (
	FieldID          Field = "id"
	FieldType        Field = "type"
	FieldDescription Field = "description"
	FieldLatitude    Field = "latitude"
	FieldLongitude   Field = "longitude"
	FieldRoad        Field = "road"
	FieldSegment     Field = "segment_marker"
	FieldDirection   Field = "direction"
	FieldSpeedLimit  Field = "speed_limit"
	FieldArea        Field = "administrative_area"
	FieldAuthority   Field = "issuing_authority"
	FieldSourceURL   Field = "source_url"
	FieldValidFrom   Field = "valid_from"
	FieldValidTo     Field = "valid_to"
	FieldMonth       Field = "month"
	FieldTimeBand    Field = "time_band"
)

// Rule assigns Category to any type text containing Keyword.
type Rule struct {
	Keyword  string
	Category Category
}

// Mapping is the per-source translation table.
type Mapping struct {
	// Synonyms lists, per canonical field, the source-native names to try in
	// priority order. The first non-empty value wins.
	Synonyms map[Field][]string

	// Vocabulary is evaluated in order, so longer keywords that contain
	// shorter ones must come first.
	Vocabulary []Rule

	// DefaultType is used when the record has no type text.
	DefaultType string

	// ClassifyFrom lists additional fields scanned by the vocabulary when the
	// type text does not classify the record.
	ClassifyFrom []Field

	// IDFrom lists the fields joined with "-" to build an identifier when the
	// record has none, before falling back to a synthesized one.
	IDFrom []Field
}

// Resolve returns the value of field in rec. Each synonym is tried verbatim,
// then every synonym is tried again ignoring case and accents.
func (m *Mapping) Resolve(rec sources.Record, field Field) string {
	names := m.Synonyms[field]

	for _, name := range names {
		if v := strings.TrimSpace(rec[name]); v != "" {
			return v
		}
	}

	if len(names) == 0 {
		return ""
	}

	folded := foldKeys(rec)

	for _, name := range names {
		if v := folded[textutils.LowerASCIIFolding(name)]; v != "" {
			return v
		}
	}

	return ""
}

// indexes rec by folded key; on collisions the lexically smallest key wins so
// the result does not depend on map iteration order.
func foldKeys(rec sources.Record) map[string]string {
	ret := make(map[string]string, len(rec))

	for _, k := range rec.Keys() {
		fk := textutils.LowerASCIIFolding(k)
		if _, seen := ret[fk]; seen {
			continue
		}

		if v := strings.TrimSpace(rec[k]); v != "" {
			ret[fk] = v
		}
	}

	return ret
}

// Classify returns the category of the first rule whose keyword is contained
// in text, ignoring case and accents.
func (m *Mapping) Classify(text string) Category {
	text = textutils.LowerASCIIFolding(text)
	if text == "" {
		return Unknown
	}

	for _, rule := range m.Vocabulary {
		if strings.Contains(text, textutils.LowerASCIIFolding(rule.Keyword)) {
			return rule.Category
		}
	}

	return Unknown
}

var radarVocabulary = []Rule{
	{"tramo", SegmentEnforcement},
	{"segment", SegmentEnforcement},
	{"section", SegmentEnforcement},
	{"fijo", FixedEnforcement},
	{"fixed", FixedEnforcement},
}

var closureVocabulary = []Rule{
	{"corte", Closure},
	{"cierre", Closure},
	{"cortad", Closure},
	{"restriccion", Closure},
	{"obra", Closure},
}

var mappings = map[string]*Mapping{
	// DGT spreadsheet of fixed points and segments.
	"tabular": {
		Synonyms: map[Field][]string{
			FieldID:          {"ID", "Id", "Código", "Codigo"},
			FieldType:        {"Tipo", "Tipo de radar", "Tipo radar"},
			FieldDescription: {"Descripción", "Denominación", "Ubicación", "Descripcion"},
			FieldLatitude:    {"Latitud", "Lat", "Latitude"},
			FieldLongitude:   {"Longitud", "Lon", "Lng", "Longitude"},
			FieldRoad:        {"Vía", "Via", "Carretera"},
			FieldSegment:     {"PK", "Punto kilométrico", "PK inicio"},
			FieldDirection:   {"Sentido"},
			FieldSpeedLimit:  {"Velocidad", "Velocidad máxima", "Límite velocidad"},
			FieldArea:        {"Provincia"},
		},
		Vocabulary: radarVocabulary,
		IDFrom:     []Field{FieldRoad, FieldSegment, FieldDirection},
	},
	// DGT infocar DATEX2 radar locations.
	"datex": {
		Synonyms: map[Field][]string{
			FieldID:          {sources.KeyID},
			FieldDescription: {sources.KeyDescription},
			FieldLatitude:    {sources.KeyLatitude},
			FieldLongitude:   {sources.KeyLongitude},
		},
		Vocabulary:  radarVocabulary,
		DefaultType: "Fijo",
	},
	// GeoJSON radar layer.
	"feed": {
		Synonyms: map[Field][]string{
			FieldID:          {"id", "codigo", "code"},
			FieldType:        {"tipo", "type", "categoria"},
			FieldDescription: {"descripcion", "nombre", "calle", "name", "description"},
			FieldLatitude:    {sources.KeyGeometryLatitude, "lat", "latitud", "latitude"},
			FieldLongitude:   {sources.KeyGeometryLongitude, "lon", "lng", "longitud", "longitude"},
			FieldRoad:        {"via", "carretera", "road"},
			FieldSegment:     {"pk", "pk_km"},
			FieldDirection:   {"sentido", "direction"},
			FieldSpeedLimit:  {"velocidad", "velocidad_max", "speed_limit"},
			FieldArea:        {"provincia", "province"},
			FieldAuthority:   {"autoridad", "organismo", "source"},
			FieldSourceURL:   {"fuente_url", "url"},
		},
		Vocabulary: radarVocabulary,
	},
	// Municipal announcements; the fragment itself is the only field.
	"avisos": {
		Synonyms: map[Field][]string{
			FieldDescription: {sources.KeyText},
		},
		Vocabulary:   closureVocabulary,
		ClassifyFrom: []Field{FieldDescription},
	},
	// Monthly traffic closures list.
	"cortes": {
		Synonyms: map[Field][]string{
			FieldID:          {"id", "code"},
			FieldType:        {"tipo"},
			FieldDescription: {"descripcion", "motivo"},
			FieldLatitude:    {"lat", "latitude"},
			FieldLongitude:   {"lon", "longitude"},
			FieldValidFrom:   {"desde", "start"},
			FieldValidTo:     {"hasta", "end"},
			FieldMonth:       {"mes"},
			FieldTimeBand:    {"franja"},
			FieldAuthority:   {"organismo"},
			FieldSourceURL:   {"fuente_url", "url"},
		},
		Vocabulary:  append(append([]Rule{}, closureVocabulary...), radarVocabulary...),
		DefaultType: "corte",
	},
	// Manually curated official controls.
	// Every item is a control whatever its own tipo says.
	"controles": {
		Synonyms: map[Field][]string{
			FieldID:          {"id"},
			FieldDescription: {"descripcion"},
			FieldLatitude:    {"lat"},
			FieldLongitude:   {"lon"},
			FieldValidFrom:   {"desde"},
			FieldValidTo:     {"hasta"},
			FieldMonth:       {"mes"},
			FieldTimeBand:    {"franja"},
			FieldAuthority:   {"organismo"},
			FieldSourceURL:   {"fuente_url"},
		},
		Vocabulary:   append(append([]Rule{}, radarVocabulary...), closureVocabulary...),
		DefaultType:  "control",
		ClassifyFrom: []Field{FieldDescription},
	},
}

// MappingFor returns the mapping table registered under name.
func MappingFor(name string) (*Mapping, error) {
	m, ok := mappings[name]
	if !ok {
		return nil, fmt.Errorf("no mapping named %q", name)
	}

	return m, nil
}
