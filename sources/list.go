// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// wrapper keys accepted around the item list, in priority order.
var listWrappers = []string{"items", "cortes", "controles"}

// ListReader reads a JSON array of flat objects, optionally wrapped in an
// object under one of the listWrappers keys.
type ListReader struct{}

// Read implements Reader.
func (ListReader) Read(p Payload) ([]Record, error) {
	body := bytes.TrimSpace(p.Body)
	if len(body) == 0 {
		return nil, eris.New("list: empty document")
	}

	var items []map[string]json.RawMessage

	if body[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(body, &wrapper); err != nil {
			return nil, eris.Wrap(err, "list: parse JSON")
		}

		for _, key := range listWrappers {
			if raw, ok := wrapper[key]; ok {
				body = raw

				break
			}
		}

		if body[0] == '{' {
			return nil, eris.Errorf("list: object has none of the keys %v", listWrappers)
		}
	}

	if err := json.Unmarshal(body, &items); err != nil {
		return nil, eris.Wrap(err, "list: parse items")
	}

	ret := make([]Record, 0, len(items))

	for _, item := range items {
		if item == nil {
			continue
		}

		rec, err := flatten(item)
		if err != nil {
			return nil, err
		}

		ret = append(ret, rec)
	}

	return ret, nil
}

func init() {
	Register("list", ListReader{})
}
