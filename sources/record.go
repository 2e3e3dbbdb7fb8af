// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

// Package sources turns raw payloads into source-native records. Readers never
// rename fields; mapping them to the canonical schema is the normalizer's job.
package sources

import (
	"fmt"
	"slices"
)

// Record maps a source-native field name to its textual value.
type Record map[string]string

// Reserved record keys written by readers.
const (
	KeyGeometryLongitude = "geometry.longitude"
	KeyGeometryLatitude  = "geometry.latitude"
	KeyID                = "id"
	KeyDescription       = "description"
	KeyLatitude          = "latitude"
	KeyLongitude         = "longitude"
	KeyText              = "text"
)

// Payload is the raw document handed over by the fetcher.
type Payload struct {
	Body        []byte
	ContentType string
}

// Reader parses a payload into records. A payload that cannot be parsed at all
// is an error; individual unusable items are skipped.
type Reader interface {
	Read(p Payload) ([]Record, error)
}

var readers = map[string]Reader{}

// Register makes a reader available under kind. It panics on duplicates.
func Register(kind string, r Reader) {
	if _, dup := readers[kind]; dup {
		panic("sources: Register called twice for kind " + kind)
	}

	readers[kind] = r
}

// Lookup returns the reader registered for kind.
func Lookup(kind string) (Reader, error) {
	r, ok := readers[kind]
	if !ok {
		return nil, fmt.Errorf("no reader for kind %q (known: %v)", kind, Kinds())
	}

	return r, nil
}

// Kinds lists the registered kinds in lexical order.
func Kinds() []string {
	ret := make([]string, 0, len(readers))
	for k := range readers {
		ret = append(ret, k)
	}

	slices.Sort(ret)

	return ret
}

// Keys returns the record field names in lexical order.
func (r Record) Keys() []string {
	ret := make([]string, 0, len(r))
	for k := range r {
		ret = append(ret, k)
	}

	slices.Sort(ret)

	return ret
}
