// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, rows [][]string) []byte {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Radares")
	require.NoError(t, err)

	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	return buf.Bytes()
}

func TestTabularReader_XLSX(t *testing.T) {
	body := createTestXLSX(t, [][]string{
		{" Provincia ", "Tipo", "Latitud", "Longitud", "Vía"},
		{"LEÓN", "FIJO", "42,598", "-5,567", "A-66"},
		{"", "", "", "", ""},
		{"ZAMORA", "TRAMO FIJO", "41,5"},
	})

	got, err := TabularReader{}.Read(Payload{Body: body})
	require.NoError(t, err)

	want := []Record{
		{"Provincia": "LEÓN", "Tipo": "FIJO", "Latitud": "42,598", "Longitud": "-5,567", "Vía": "A-66"},
		{"Provincia": "ZAMORA", "Tipo": "TRAMO FIJO", "Latitud": "41,5", "Longitud": "", "Vía": ""},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestTabularReader_NumericCells(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Radares")
	require.NoError(t, err)

	header := sheet.AddRow()
	header.AddCell().SetString("Velocidad")

	row := sheet.AddRow()
	row.AddCell().SetInt(120)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	got, err := TabularReader{}.Read(Payload{Body: buf.Bytes()})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "120", got[0]["Velocidad"])
}

func TestTabularReader_CSV(t *testing.T) {
	// ISO-8859-1 encoded, semicolon separated
	body := []byte("Provincia;Tipo;Latitud;Longitud\nLE\xd3N;FIJO;42,598;-5,567\n")

	got, err := TabularReader{}.Read(Payload{Body: body, ContentType: "text/csv"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "LEÓN", got[0]["Provincia"])
	assert.Equal(t, "42,598", got[0]["Latitud"])
}

func TestTabularReader_CommaCSVWithBOM(t *testing.T) {
	body := []byte("\xef\xbb\xbfProvincia,Tipo\nLEÓN,FIJO\n")

	got, err := TabularReader{}.Read(Payload{Body: body})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Record{"Provincia": "LEÓN", "Tipo": "FIJO"}, got[0])
}

func TestTabularReader_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{"Empty", nil},
		{"HTML", []byte("<html><body>Mantenimiento</body></html>")},
		{"BrokenZip", []byte("PK\x03\x04garbage")},
		{"JSONError", []byte(`{"error": "not found", "status": 404}`)},
		{"JSONList", []byte(`[]`)},
		{"SingleColumn", []byte("Servicio no disponible\nInténtelo más tarde\n")},
		{"OneNamedColumn", []byte("Provincia;\nLEÓN;\n")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TabularReader{}.Read(Payload{Body: tc.body})
			require.Error(t, err)
			assert.Empty(t, got)
		})
	}
}
