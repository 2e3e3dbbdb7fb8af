// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// Node is a minimal XML element tree. Queries compare local names only, so
// callers never depend on namespace URIs or prefixes.
type Node struct {
	Name     xml.Name
	Attr     []xml.Attr
	Text     string // character data directly inside the element
	Children []*Node
}

// Local returns the element name without namespace.
func (n *Node) Local() string {
	return n.Name.Local
}

// Attribute returns the value of the attribute with the given local name.
func (n *Node) Attribute(local string) string {
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}

	return ""
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}

	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// FindAll returns the descendants of n (n excluded) whose local name is one of
// names, in document order.
func (n *Node) FindAll(names ...string) []*Node {
	var ret []*Node

	for _, c := range n.Children {
		c.Walk(func(d *Node) bool {
			if matchesLocal(d, names) {
				ret = append(ret, d)
			}

			return true
		})
	}

	return ret
}

// Find returns the first descendant with the given local name, or nil.
func (n *Node) Find(name string) *Node {
	if all := n.FindAll(name); len(all) > 0 {
		return all[0]
	}

	return nil
}

// Innermost returns the elements named one of names that contain no other
// matching element, in document order. n itself is considered.
func (n *Node) Innermost(names ...string) []*Node {
	var ret []*Node

	n.Walk(func(d *Node) bool {
		if matchesLocal(d, names) && len(d.FindAll(names...)) == 0 {
			ret = append(ret, d)
		}

		return true
	})

	return ret
}

func matchesLocal(n *Node, names []string) bool {
	for _, name := range names {
		if n.Name.Local == name {
			return true
		}
	}

	return false
}

// ParseXML builds the element tree of body, honouring the encoding declared
// in the XML prolog.
func ParseXML(body []byte) (*Node, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "xml: unsupported charset %q", charset)
		}

		return enc.NewDecoder().Reader(input), nil
	}

	var (
		root  *Node
		stack []*Node
		text  []*strings.Builder
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, eris.Wrap(err, "xml: read token")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{Name: t.Name, Attr: t.Copy().Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, eris.New("xml: multiple root elements")
				}

				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}

			stack = append(stack, node)
			text = append(text, &strings.Builder{})
		case xml.CharData:
			if len(text) > 0 {
				text[len(text)-1].Write(t)
			}
		case xml.EndElement:
			last := len(stack) - 1
			stack[last].Text = strings.TrimSpace(text[last].String())
			stack, text = stack[:last], text[:last]
		}
	}

	if root == nil {
		return nil, eris.New("xml: no root element")
	}

	if len(stack) > 0 {
		return nil, eris.Errorf("xml: unclosed element %s", stack[len(stack)-1].Local())
	}

	return root, nil
}
