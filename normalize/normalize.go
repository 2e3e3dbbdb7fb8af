// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/ATorbado/leon-radares/sources"
	"github.com/ATorbado/leon-radares/spatial"
	"github.com/google/uuid"
)

// ids synthesized for records without one live in this namespace, so the same
// place and description always yield the same id.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ATorbado/leon-radares"))

// Normalizer turns records of a single source into entries.
type Normalizer struct {
	Mapping   *Mapping
	Source    string    // source name, part of synthesized ids
	IDPrefix  string    // prefix of synthesized ids
	Authority string    // default issuing authority
	SourceURL string    // default provenance URL
	Now       time.Time // run timestamp stamped as last update
}

// Normalize maps rec into an entry. It returns false for records that carry
// nothing usable: no description, no location, no road and no type.
func (n *Normalizer) Normalize(rec sources.Record) (*Entry, bool) {
	m := n.Mapping

	e := &Entry{
		Type:        m.Resolve(rec, FieldType),
		Description: m.Resolve(rec, FieldDescription),
		Road:        m.Resolve(rec, FieldRoad),
		Segment:     m.Resolve(rec, FieldSegment),
		Direction:   m.Resolve(rec, FieldDirection),
		Area:        strings.ToUpper(m.Resolve(rec, FieldArea)),
		Authority:   m.Resolve(rec, FieldAuthority),
		SourceURL:   m.Resolve(rec, FieldSourceURL),
		Month:       m.Resolve(rec, FieldMonth),
		TimeBand:    strings.ToLower(m.Resolve(rec, FieldTimeBand)),
		LastUpdate:  n.Now.UTC(),
	}

	e.Point = spatial.NewPoint(
		ParseOrAbsent(m.Resolve(rec, FieldLatitude), Decimal),
		ParseOrAbsent(m.Resolve(rec, FieldLongitude), Decimal),
	)
	e.SpeedLimit = ParseOrAbsent(m.Resolve(rec, FieldSpeedLimit), Decimal)
	e.ValidFrom = ParseOrAbsent(m.Resolve(rec, FieldValidFrom), Timestamp)
	e.ValidTo = ParseOrAbsent(m.Resolve(rec, FieldValidTo), Timestamp)

	if e.Description == "" && e.Point == nil && e.Road == "" && e.Type == "" {
		return nil, false
	}

	if e.Description == "" {
		e.Description = describe(e)
	}

	e.Category = n.classify(rec, e)

	if e.Type == "" {
		e.Type = m.DefaultType
	}

	if e.Authority == "" {
		e.Authority = n.Authority
	}

	if e.SourceURL == "" {
		e.SourceURL = n.SourceURL
	}

	e.ID = n.id(rec, e)

	return e, true
}

func (n *Normalizer) classify(rec sources.Record, e *Entry) Category {
	m := n.Mapping

	typ := e.Type
	if typ == "" {
		typ = m.DefaultType
	}

	if c := m.Classify(typ); c != Unknown {
		return c
	}

	for _, f := range m.ClassifyFrom {
		if c := m.Classify(m.Resolve(rec, f)); c != Unknown {
			return c
		}
	}

	return Unknown
}

func (n *Normalizer) id(rec sources.Record, e *Entry) string {
	m := n.Mapping

	if id := m.Resolve(rec, FieldID); id != "" {
		return id
	}

	if len(m.IDFrom) > 0 {
		parts := make([]string, len(m.IDFrom))
		found := false

		for i, f := range m.IDFrom {
			parts[i] = m.Resolve(rec, f)
			found = found || parts[i] != ""
		}

		if found {
			return strings.Join(parts, "-")
		}
	}

	lat, lng := "-", "-"
	if e.Point != nil {
		lat, lng = fmt.Sprintf("%.5f", e.Point.Lat), fmt.Sprintf("%.5f", e.Point.Lng)
	}

	name := strings.Join([]string{n.Source, lat, lng, e.Description}, "|")
	id := uuid.NewSHA1(idNamespace, []byte(name)).String()

	if n.IDPrefix == "" {
		return id
	}

	return n.IDPrefix + "-" + id
}

// builds a description for records that only carry road references, e.g.
// "A-66 PK 152,3 (Creciente)".
func describe(e *Entry) string {
	var parts []string

	if e.Road != "" {
		parts = append(parts, e.Road)
	}

	if e.Segment != "" {
		parts = append(parts, "PK "+e.Segment)
	}

	if e.Direction != "" {
		parts = append(parts, "("+e.Direction+")")
	}

	return strings.Join(parts, " ")
}
