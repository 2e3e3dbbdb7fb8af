// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListReader(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []Record
	}{
		{
			name: "Array",
			doc:  `[{"id": "c1", "lat": 42.6, "mes": "2025-03"}, null]`,
			want: []Record{{"id": "c1", "lat": "42.6", "mes": "2025-03"}},
		},
		{
			name: "Items",
			doc:  `{"items": [{"code": "c2"}]}`,
			want: []Record{{"code": "c2"}},
		},
		{
			name: "Cortes",
			doc:  `{"generado": "hoy", "cortes": [{"motivo": "obras"}, {"motivo": "fiestas"}]}`,
			want: []Record{{"motivo": "obras"}, {"motivo": "fiestas"}},
		},
		{
			name: "Empty",
			doc:  `[]`,
			want: []Record{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ListReader{}.Read(Payload{Body: []byte(tc.doc)})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestListReader_Invalid(t *testing.T) {
	for _, doc := range []string{"", "{", `{"otros": []}`, `"texto"`, `[1, 2]`} {
		t.Run(doc, func(t *testing.T) {
			_, err := ListReader{}.Read(Payload{Body: []byte(doc)})
			require.Error(t, err)
		})
	}
}
