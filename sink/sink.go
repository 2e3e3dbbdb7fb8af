// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

// Package sink persists the artifacts produced by a pipeline run.
package sink

import (
	"context"
	"errors"
	"time"

	"github.com/ATorbado/leon-radares/config"
	"github.com/ATorbado/leon-radares/normalize"
)

// Artifact is the outcome of one source run.
type Artifact struct {
	Source    config.Source
	Data      []byte // serialized artifact, in Source.Format
	Entries   []*normalize.Entry
	Generated time.Time
}

// Sink stores artifacts. Implementations replace whatever they stored for the
// same source before.
type Sink interface {
	Name() string
	Write(ctx context.Context, a *Artifact) error
	Close() error
}

// Multi fans an artifact out to several sinks. Every sink is attempted and
// the failures are joined.
type Multi []Sink

// Name implements Sink.
func (m Multi) Name() string { return "multi" }

// Write implements Sink.
func (m Multi) Write(ctx context.Context, a *Artifact) error {
	var errs []error

	for _, s := range m {
		if err := s.Write(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Close implements Sink.
func (m Multi) Close() error {
	var errs []error

	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
