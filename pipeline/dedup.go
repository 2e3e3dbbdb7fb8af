// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import "github.com/ATorbado/leon-radares/normalize"

// Dedup removes entries describing the same thing at the same place, keeping
// the first occurrence and the input order. See normalize.Entry.DedupKey.
func Dedup(entries []*normalize.Entry) []*normalize.Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]*normalize.Entry, 0, len(entries))

	for _, e := range entries {
		k := e.DedupKey()
		if seen[k] {
			continue
		}

		seen[k] = true

		out = append(out, e)
	}

	return out
}
