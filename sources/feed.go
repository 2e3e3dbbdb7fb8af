// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// FeedReader reads a GeoJSON-like feature collection. Properties are copied as
// they come; the [lon, lat] pair lands under the reserved geometry keys.
type FeedReader struct{}

type feedDocument struct {
	Features *[]feedFeature `json:"features"`
}

type feedFeature struct {
	Properties map[string]json.RawMessage `json:"properties"`
	Geometry   *struct {
		Coordinates []json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
}

// Read implements Reader.
func (FeedReader) Read(p Payload) ([]Record, error) {
	var doc feedDocument

	if err := json.Unmarshal(p.Body, &doc); err != nil {
		return nil, eris.Wrap(err, "feed: parse JSON")
	}

	if doc.Features == nil {
		return nil, eris.New("feed: document has no features list")
	}

	ret := make([]Record, 0, len(*doc.Features))

	for _, f := range *doc.Features {
		if f.Geometry == nil || len(f.Geometry.Coordinates) < 2 {
			continue
		}

		rec, err := flatten(f.Properties)
		if err != nil {
			return nil, err
		}

		lng, okLng, _ := rawText(f.Geometry.Coordinates[0])
		lat, okLat, _ := rawText(f.Geometry.Coordinates[1])

		if !okLng || !okLat {
			continue
		}

		rec[KeyGeometryLongitude] = lng
		rec[KeyGeometryLatitude] = lat

		ret = append(ret, rec)
	}

	return ret, nil
}

// flatten renders every JSON value as text: strings verbatim, numbers as they
// were written, booleans as true/false and nested values as compact JSON.
// Nulls are left out.
func flatten(props map[string]json.RawMessage) (Record, error) {
	rec := make(Record, len(props)+2)

	for k, raw := range props {
		v, ok, err := rawText(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "property %q", k)
		}

		if ok {
			rec[k] = v
		}
	}

	return rec, nil
}

func rawText(raw json.RawMessage) (string, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, eris.Wrap(err, "decode string")
		}

		return s, true, nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return "", false, eris.Wrap(err, "compact")
		}

		return buf.String(), true, nil
	default:
		// numbers and booleans keep their literal text
		return string(raw), true, nil
	}
}

func init() {
	Register("feed", FeedReader{})
}
