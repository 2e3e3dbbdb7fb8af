// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"regexp"

	"github.com/ATorbado/leon-radares/utils/htmlutils"
	"github.com/ATorbado/leon-radares/utils/textutils"
	"github.com/rotisserie/eris"
)

// A fragment runs from a trigger keyword up to, not including, the next
// period. Abbreviations such as "Avda." therefore cut the fragment short.
// Roadwork ("obras") only opens a fragment at the start of a sentence: inside
// one it is the reason of a closure ("corte ... por obras").
var avisoFragment = regexp.MustCompile(
	`(?i)(?:^|[.!?:]\s*)(obras?\b[^.]*)|\b((?:corte|cierre|restricci[óo]n)[^.]+)`,
)

// AvisosReader extracts closure announcements from a municipal HTML page.
// Announcements carry no coordinates, only the text fragment.
type AvisosReader struct{}

// Read implements Reader.
func (AvisosReader) Read(p Payload) ([]Record, error) {
	r, err := htmlutils.AsReader(p.Body, p.ContentType)
	if err != nil {
		return nil, eris.Wrap(err, "avisos")
	}

	doc, err := htmlutils.AsNode(r)
	if err != nil {
		return nil, eris.Wrap(err, "avisos")
	}

	return Fragments(htmlutils.VisibleText(doc)), nil
}

// Fragments returns one record per announcement fragment found in text.
func Fragments(text string) []Record {
	var ret []Record

	for _, m := range avisoFragment.FindAllStringSubmatch(text, -1) {
		fragment := m[1]
		if fragment == "" {
			fragment = m[2]
		}

		if fragment = textutils.CollapseSpaces(fragment); fragment != "" {
			ret = append(ret, Record{KeyText: fragment})
		}
	}

	return ret
}

func init() {
	Register("avisos", AvisosReader{})
}
