// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ATorbado/leon-radares/normalize"
	"github.com/ATorbado/leon-radares/output"
	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	source       VARCHAR NOT NULL,
	id           VARCHAR NOT NULL,
	category     VARCHAR NOT NULL,
	type         VARCHAR,
	description  VARCHAR,
	area         VARCHAR,
	road         VARCHAR,
	segment      VARCHAR,
	direction    VARCHAR,
	speed_limit  DOUBLE,
	lat          DOUBLE,
	lng          DOUBLE,
	point        VARCHAR,
	h3_res9      VARCHAR,
	distance_km  DOUBLE,
	authority    VARCHAR,
	source_url   VARCHAR,
	valid_from   TIMESTAMPTZ,
	valid_to     TIMESTAMPTZ,
	month        VARCHAR,
	time_band    VARCHAR,
	last_update  TIMESTAMPTZ,
	generated_at TIMESTAMPTZ NOT NULL
)`

// DuckDBStore keeps the latest snapshot of every source in an entries table.
type DuckDBStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenDuckDB opens (or creates) the database at path. An empty path opens an
// in-memory database.
func OpenDuckDB(path string, logger *zap.Logger) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening duckdb %q", path)
	}

	s, err := NewDuckDBStore(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// NewDuckDBStore creates the schema on db.
func NewDuckDBStore(db *sql.DB, logger *zap.Logger) (*DuckDBStore, error) {
	if logger == nil {
		logger = zap.L()
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, eris.Wrap(err, "creating schema")
	}

	return &DuckDBStore{db: db, logger: logger}, nil
}

// DB exposes the underlying handle.
func (s *DuckDBStore) DB() *sql.DB { return s.db }

// Name implements Sink.
func (s *DuckDBStore) Name() string { return "duckdb" }

// Write replaces the rows of the artifact's source in a single transaction.
func (s *DuckDBStore) Write(ctx context.Context, a *Artifact) error {
	source := a.Source.Name

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "starting transaction for %s", source)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.logger.Warn("rollback failed", zap.String("source", source), zap.Error(err))
		}
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE source = ?", source); err != nil {
		return eris.Wrapf(err, "deleting records for %s", source)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (
			source, id, category, type, description, area, road, segment, direction,
			speed_limit, lat, lng, point, h3_res9, distance_km, authority, source_url,
			valid_from, valid_to, month, time_band, last_update, generated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return eris.Wrap(err, "preparing statement")
	}
	defer stmt.Close()

	for _, e := range a.Entries {
		if _, err := stmt.ExecContext(ctx, row(source, e, a)...); err != nil {
			return eris.Wrapf(err, "inserting %s/%s", source, e.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrapf(err, "committing %s", source)
	}

	return nil
}

func row(source string, e *normalize.Entry, a *Artifact) []any {
	var lat, lng, point, h3 any
	if e.Point != nil {
		lat, lng = e.Point.Lat, e.Point.Lng
		point = *e.Point

		if cell, err := e.Point.H3Cell(output.H3Resolution); err == nil {
			h3 = cell
		}
	}

	return []any{
		source, e.ID, string(e.Category), nullString(e.Type), nullString(e.Description),
		nullString(e.Area), nullString(e.Road), nullString(e.Segment), nullString(e.Direction),
		nullable(e.SpeedLimit), lat, lng, point, h3, nullable(e.DistanceKm),
		nullString(e.Authority), nullString(e.SourceURL),
		nullable(e.ValidFrom), nullable(e.ValidTo), nullString(e.Month), nullString(e.TimeBand),
		e.LastUpdate, a.Generated,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}

	return *v
}

// Close implements Sink.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}
