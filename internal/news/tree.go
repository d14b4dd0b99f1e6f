package news

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// AttrPrefix marks attribute keys so they cannot collide with child
// element names: the rdf:about attribute is looked up as "@_rdf:about".
const AttrPrefix = "@_"

// ErrEmptyDocument is returned when a document holds no elements.
var ErrEmptyDocument = errors.New("document has no root element")

// Node is one element of a generic XML tree. Names keep the prefix the
// document was written with ("rdf:RDF", "dc:date"); namespace URIs are
// not resolved.
type Node struct {
	Name     string
	Attrs    map[string]string // keyed "@_<name>"
	Text     string            // trimmed character data directly inside the element
	Children []*Node
}

// ParseTree reads an XML document into a tree and returns a synthetic
// root whose children are the document's top-level elements. Non-UTF-8
// documents are decoded according to their XML declaration.
func ParseTree(r io.Reader) (*Node, error) {
	d := xml.NewDecoder(r)
	d.Strict = false
	d.Entity = xml.HTMLEntity
	d.CharsetReader = charset.NewReaderLabel

	root := &Node{}
	stack := []*Node{root}
	text := []*strings.Builder{{}}

	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: qualified(t.Name)}
			for _, a := range t.Attr {
				if n.Attrs == nil {
					n.Attrs = make(map[string]string, len(t.Attr))
				}
				n.Attrs[AttrPrefix+qualified(a.Name)] = strings.TrimSpace(a.Value)
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, n)
			stack = append(stack, n)
			text = append(text, &strings.Builder{})

		case xml.EndElement:
			name := qualified(t.Name)
			// Close up to the matching open element; stray end tags are ignored.
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].Name != name {
					continue
				}
				for j := len(stack) - 1; j >= i; j-- {
					stack[j].Text = strings.TrimSpace(text[j].String())
				}
				stack = stack[:i]
				text = text[:i]
				break
			}

		case xml.CharData:
			text[len(text)-1].Write(t)
		}
	}

	// Unclosed elements at EOF keep whatever text they collected.
	for j := len(stack) - 1; j > 0; j-- {
		stack[j].Text = strings.TrimSpace(text[j].String())
	}

	if len(root.Children) == 0 {
		return nil, ErrEmptyDocument
	}
	return root, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// Child returns the first child element called name, or nil.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// All returns every child element called name, in document order.
func (n *Node) All(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Path follows a chain of child names from n. It returns nil when any
// step is missing.
func (n *Node) Path(names ...string) *Node {
	cur := n
	for _, name := range names {
		cur = cur.Child(name)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Field resolves key on n: an "@_"-prefixed key reads an attribute,
// anything else reads the text of the first child with that name.
func (n *Node) Field(key string) string {
	if n == nil {
		return ""
	}
	if strings.HasPrefix(key, AttrPrefix) {
		return n.Attrs[key]
	}
	if c := n.Child(key); c != nil {
		return c.Text
	}
	return ""
}

// FirstField returns the first non-empty value among keys.
func (n *Node) FirstField(keys ...string) string {
	for _, k := range keys {
		if v := n.Field(k); v != "" {
			return v
		}
	}
	return ""
}
