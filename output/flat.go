// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

// Package output serializes entries into the artifacts consumed by the map.
package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/ATorbado/leon-radares/config"
	"github.com/ATorbado/leon-radares/normalize"
	"github.com/ATorbado/leon-radares/spatial"
	"github.com/rotisserie/eris"
)

const dateLayout = "2006-01-02"

// Record is the flat shape of an entry. Empty fields are omitted.
type Record struct {
	ID          string   `json:"id,omitempty"`
	Type        string   `json:"tipo,omitempty"`
	Category    string   `json:"categoria,omitempty"`
	Description string   `json:"descripcion,omitempty"`
	Area        string   `json:"provincia,omitempty"`
	Road        string   `json:"via,omitempty"`
	Segment     string   `json:"pk,omitempty"`
	Direction   string   `json:"sentido,omitempty"`
	SpeedLimit  *float64 `json:"velocidad,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	DistanceKm  *float64 `json:"dist_km_leon,omitempty"`
	Authority   string   `json:"autoridad,omitempty"`
	SourceURL   string   `json:"fuente_url,omitempty"`
	ValidFrom   string   `json:"desde,omitempty"`
	ValidTo     string   `json:"hasta,omitempty"`
	Month       string   `json:"mes,omitempty"`
	TimeBand    string   `json:"franja,omitempty"`
	LastUpdate  string   `json:"last_update,omitempty"`
}

// NewRecord flattens e.
func NewRecord(e *normalize.Entry) Record {
	r := Record{
		ID:          e.ID,
		Type:        e.Type,
		Category:    string(e.Category),
		Description: e.Description,
		Area:        e.Area,
		Road:        e.Road,
		Segment:     e.Segment,
		Direction:   e.Direction,
		SpeedLimit:  e.SpeedLimit,
		Authority:   e.Authority,
		SourceURL:   e.SourceURL,
		ValidFrom:   formatTime(e.ValidFrom),
		ValidTo:     formatTime(e.ValidTo),
		Month:       e.Month,
		TimeBand:    e.TimeBand,
	}

	if r.Type == "" {
		r.Type = e.Category.Label()
	}

	if e.Point != nil {
		lat, lon := e.Point.Lat, e.Point.Lng
		r.Lat, r.Lon = &lat, &lon
	}

	if e.DistanceKm != nil {
		d := spatial.Round(*e.DistanceKm, 2)
		r.DistanceKm = &d
	}

	if !e.LastUpdate.IsZero() {
		r.LastUpdate = e.LastUpdate.UTC().Format(time.RFC3339)
	}

	return r
}

// formatTime renders whole days in Madrid as a plain date.
func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}

	local := t.In(normalize.Madrid)
	if local.Hour() == 0 && local.Minute() == 0 && local.Second() == 0 && local.Nanosecond() == 0 {
		return local.Format(dateLayout)
	}

	return local.Format(time.RFC3339)
}

// Render serializes entries in the requested format. Order is preserved and
// an empty input yields an empty array or collection, never null.
func Render(entries []*normalize.Entry, format config.Format) ([]byte, error) {
	return render(entries, format, nil)
}

// RenderSource serializes entries in the format of src, with the list keys
// renamed as src.Keys asks.
func RenderSource(entries []*normalize.Entry, src *config.Source) ([]byte, error) {
	return render(entries, src.Format, src.Keys)
}

func render(entries []*normalize.Entry, format config.Format, keys map[string]string) ([]byte, error) {
	var doc any

	switch format {
	case config.FormatList, "":
		if len(keys) > 0 {
			records := make([]keyedRecord, 0, len(entries))
			for _, e := range entries {
				records = append(records, keyedRecord{Record: NewRecord(e), keys: keys})
			}

			doc = records

			break
		}

		records := make([]Record, 0, len(entries))
		for _, e := range entries {
			records = append(records, NewRecord(e))
		}

		doc = records
	case config.FormatGeoJSON:
		fc, err := NewFeatureCollection(entries)
		if err != nil {
			return nil, err
		}

		doc = fc
	default:
		return nil, eris.Errorf("unsupported format %q", format)
	}

	data, err := encode(doc, "  ")
	if err != nil {
		return nil, eris.Wrap(err, "encoding artifact")
	}

	return data, nil
}

func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// keyedRecord encodes a Record under renamed keys, keeping the field order.
type keyedRecord struct {
	Record

	keys map[string]string
}

func (r keyedRecord) MarshalJSON() ([]byte, error) {
	raw, err := encode(r.Record, "")
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	buf.WriteByte('{')

	for i := 0; dec.More(); i++ {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		key, _ := tok.(string)
		if alias, ok := r.keys[key]; ok {
			key = alias
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}

		if i > 0 {
			buf.WriteByte(',')
		}

		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}

		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}
