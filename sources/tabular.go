// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"bytes"
	"encoding/csv"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding/charmap"
)

// zip local file header, the container of every XLSX workbook.
var zipMagic = []byte("PK\x03\x04")

// TabularReader reads the first sheet of a spreadsheet. The first row holds the
// column names; every following row becomes a record keyed by them. Payloads
// that are not XLSX workbooks are read as delimited text.
type TabularReader struct{}

// Read implements Reader.
func (TabularReader) Read(p Payload) ([]Record, error) {
	var (
		rows [][]string
		err  error
	)

	if bytes.HasPrefix(p.Body, zipMagic) {
		rows, err = xlsxRows(p.Body)
	} else {
		rows, err = csvRows(p.Body)
	}

	if err != nil {
		return nil, err
	}

	return rowsToRecords(rows), nil
}

func rowsToRecords(rows [][]string) []Record {
	if len(rows) == 0 {
		return nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	ret := make([]Record, 0, len(rows)-1)

	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}

		rec := make(Record, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			} else {
				rec[name] = ""
			}
		}

		ret = append(ret, rec)
	}

	return ret
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}

func xlsxRows(body []byte) ([][]string, error) {
	f, err := xlsx.OpenBinary(body)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open workbook")
	}

	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}

	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))

	for _, row := range sheet.Rows {
		if row == nil {
			rows = append(rows, nil)

			continue
		}

		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cellText(cell)
		}

		rows = append(rows, cells)
	}

	return rows, nil
}

// cellText renders a cell the way the spreadsheet displays it.
func cellText(cell *xlsx.Cell) string {
	if cell == nil {
		return ""
	}

	s, err := cell.FormattedValue()
	if err != nil {
		return cell.Value
	}

	return s
}

func csvRows(body []byte) ([][]string, error) {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))

	// markup and JSON error documents
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || bytes.IndexByte([]byte("<{["), trimmed[0]) >= 0 {
		return nil, eris.New("csv: payload is not a spreadsheet")
	}

	if !utf8.Valid(body) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
		if err != nil {
			return nil, eris.Wrap(err, "csv: decode latin-1")
		}

		body = decoded
	}

	r := csv.NewReader(bytes.NewReader(body))
	r.Comma = sniffDelimiter(body)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read")
	}

	if len(rows) == 0 {
		return nil, eris.New("csv: empty document")
	}

	if named := len(rows[0]) - blankCells(rows[0]); named < 2 {
		return nil, eris.Errorf("csv: header has %d named columns, want at least 2", named)
	}

	return rows, nil
}

func blankCells(row []string) int {
	n := 0

	for _, c := range row {
		if strings.TrimSpace(c) == "" {
			n++
		}
	}

	return n
}

// Spanish exports favour ';' because ',' is the decimal separator.
func sniffDelimiter(body []byte) rune {
	line := body
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		line = body[:i]
	}

	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}

	return ','
}

func init() {
	Register("tabular", TabularReader{})
}
