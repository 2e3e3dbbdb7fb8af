// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ATorbado/leon-radares/config"
	"github.com/ATorbado/leon-radares/normalize"
	"github.com/ATorbado/leon-radares/spatial"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generated = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func artifact(entries ...*normalize.Entry) *Artifact {
	return &Artifact{
		Source: config.Source{
			Name:   "dgt-datex",
			Format: config.FormatList,
			Output: "radars/radares_fijos_urbanos_leon.json",
		},
		Data:      []byte("[]\n"),
		Entries:   entries,
		Generated: generated,
	}
}

func radar(id string) *normalize.Entry {
	d := 1.5

	return &normalize.Entry{
		ID:          id,
		Category:    normalize.FixedEnforcement,
		Description: "León - Av. Madrid",
		Point:       &spatial.Point{Lat: 42.6, Lng: -5.57},
		DistanceKm:  &d,
		LastUpdate:  generated,
	}
}

func TestFileStoreWrite(t *testing.T) {
	root := t.TempDir()
	s := NewFileStore(root)

	require.NoError(t, s.Write(context.Background(), artifact()))

	path := filepath.Join(root, "radars", "radares_fijos_urbanos_leon.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	// overwrite leaves no temporary files behind
	a := artifact()
	a.Data = []byte("[{}]\n")
	require.NoError(t, s.Write(context.Background(), a))

	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[{}]\n", string(data))
}

func TestFileStorePath(t *testing.T) {
	s := NewFileStore("/srv/out")

	tests := []struct {
		rel     string
		want    string
		wantErr bool
	}{
		{"radars/a.json", filepath.FromSlash("/srv/out/radars/a.json"), false},
		{"closures/../radars/a.json", filepath.FromSlash("/srv/out/radars/a.json"), false},
		{"../etc/passwd", "", true},
		{"..", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			got, err := s.Path(tt.rel)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOutsideRoot)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDuckDBStoreReplacesSnapshot(t *testing.T) {
	s, err := OpenDuckDB("", nil)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()

	require.NoError(t, s.Write(ctx, artifact(radar("a"), radar("b"))))
	require.NoError(t, s.Write(ctx, artifact(radar("c"))))

	other := artifact(radar("z"))
	other.Source.Name = "radares-feed"
	require.NoError(t, s.Write(ctx, other))

	var n int
	require.NoError(t, s.DB().QueryRow("SELECT count(*) FROM entries WHERE source = 'dgt-datex'").Scan(&n))
	assert.Equal(t, 1, n)

	var (
		id, wkt, h3 string
		point       spatial.Point
		dist        float64
	)
	require.NoError(t, s.DB().QueryRow(
		"SELECT id, point, point, h3_res9, distance_km FROM entries WHERE source = 'dgt-datex'",
	).Scan(&id, &wkt, &point, &h3, &dist))
	assert.Equal(t, "c", id)
	assert.Equal(t, "POINT(-5.570000 42.600000)", wkt)
	assert.Equal(t, spatial.Point{Lat: 42.6, Lng: -5.57}, point)
	assert.NotEmpty(t, h3)
	assert.InDelta(t, 1.5, dist, 1e-9)

	require.NoError(t, s.DB().QueryRow("SELECT count(*) FROM entries").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestDuckDBStoreNullGeometry(t *testing.T) {
	s, err := OpenDuckDB("", nil)
	require.NoError(t, err)
	defer s.Close()

	closure := &normalize.Entry{ID: "x", Category: normalize.Closure, Description: "Corte", LastUpdate: generated}
	require.NoError(t, s.Write(context.Background(), artifact(closure)))

	var valid bool
	require.NoError(t, s.DB().QueryRow("SELECT point IS NULL FROM entries").Scan(&valid))
	assert.True(t, valid)
}

type recordingWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.Write(context.Background(), artifact(radar("a"))))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, []byte("dgt-datex"), msg.Key)
	assert.Equal(t, []byte("[]\n"), msg.Value)
	require.Len(t, msg.Headers, 4)
	assert.Equal(t, "format", msg.Headers[0].Key)
	assert.Equal(t, []byte("list"), msg.Headers[0].Value)
	assert.Equal(t, []byte("1"), msg.Headers[2].Value)
	assert.Equal(t, []byte("2025-03-14T10:00:00Z"), msg.Headers[3].Value)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisherError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &recordingWriter{err: boom}}

	err := p.Write(context.Background(), artifact())
	assert.ErrorIs(t, err, boom)
}

func TestMultiAttemptsEverySink(t *testing.T) {
	boom := errors.New("broker down")
	failing := &KafkaPublisher{writer: &recordingWriter{err: boom}}
	root := t.TempDir()

	m := Multi{failing, NewFileStore(root)}

	err := m.Write(context.Background(), artifact())
	assert.ErrorIs(t, err, boom)
	assert.FileExists(t, filepath.Join(root, "radars", "radares_fijos_urbanos_leon.json"))
	assert.NoError(t, m.Close())
}
