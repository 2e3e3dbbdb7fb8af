// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"strconv"
	"strings"
)

// DATEX2 element names. The feed is namespaced and the namespace URI changes
// between schema versions, so only local names are compared. Version 3 wraps
// each location in a predefinedLocationContainer, which may also group other
// locations; the innermost match is the location.
var (
	datexContainers = []string{"predefinedLocation", "predefinedLocationContainer"}
	datexNameTags   = []string{"predefinedLocationName", "name", "locationDescription", "roadName"}
)

const descriptionSeparator = " - "

// DatexReader extracts one record per predefined location of a DATEX2
// PredefinedLocationsPublication.
type DatexReader struct{}

// Read implements Reader.
func (DatexReader) Read(p Payload) ([]Record, error) {
	root, err := ParseXML(p.Body)
	if err != nil {
		return nil, err
	}

	var ret []Record

	for _, loc := range root.Innermost(datexContainers...) {
		lat, okLat := firstCoordinate(loc, "latitude")
		lng, okLng := firstCoordinate(loc, "longitude")

		if !okLat || !okLng {
			continue
		}

		rec := Record{
			KeyLatitude:    lat,
			KeyLongitude:   lng,
			KeyDescription: describeLocation(loc),
		}

		if id := loc.Attribute("id"); id != "" {
			rec[KeyID] = id
		}

		ret = append(ret, rec)
	}

	return ret, nil
}

// joins the distinct, non-empty texts of the name tags in document order.
func describeLocation(loc *Node) string {
	var parts []string

	seen := map[string]bool{}

	for _, n := range loc.FindAll(datexNameTags...) {
		// names are often wrapped in <values><value lang="es">…</value></values>
		text := n.Text
		if text == "" {
			if v := n.Find("value"); v != nil {
				text = v.Text
			}
		}

		if text == "" || seen[text] {
			continue
		}

		seen[text] = true
		parts = append(parts, text)
	}

	return strings.Join(parts, descriptionSeparator)
}

// returns the first leaf named tag whose text parses as a decimal, normalized
// to use a point as decimal separator.
func firstCoordinate(loc *Node, tag string) (string, bool) {
	for _, n := range loc.FindAll(tag) {
		v := strings.ReplaceAll(strings.TrimSpace(n.Text), ",", ".")
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return v, true
		}
	}

	return "", false
}

func init() {
	Register("datex", DatexReader{})
}
