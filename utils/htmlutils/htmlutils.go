// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

// Package htmlutils provides utility functions for working with HTML.
package htmlutils

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ATorbado/leon-radares/utils/textutils"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// elements whose text content is never rendered.
var invisible = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Head:     true,
}

// Node2string appends the visible text of n to sb. Text nodes are trimmed,
// internal whitespace collapsed, and joined with a single space.
func Node2string(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		tmp := textutils.CollapseSpaces(n.Data)
		if len(tmp) > 0 {
			if sb.Len() != 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString(tmp)
		}
	case html.ElementNode:
		if invisible[n.DataAtom] {
			return
		}

		fallthrough
	default:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			Node2string(child, sb)
		}
	}
}

// VisibleText returns the visible text of the document rooted at n.
func VisibleText(n *html.Node) string {
	sb := strings.Builder{}
	Node2string(n, &sb)

	return sb.String()
}

// AsReader wraps payload with a decoder for the charset announced by the
// content type or sniffed from the document, defaulting to UTF-8.
func AsReader(payload []byte, contentType string) (io.Reader, error) {
	rr, err := charset.NewReader(bytes.NewReader(payload), contentType)
	if err != nil {
		return nil, fmt.Errorf("detecting charset: %w", err)
	}

	return rr, nil
}

// AsNode parses an io.Reader as an HTML node.
func AsNode(r io.Reader) (*html.Node, error) {
	n, err := html.Parse(r)
	if nil != err {
		return nil, fmt.Errorf("parsing body as HTML: %w", err)
	}

	return n, nil
}
