// Package cda implements the generic assembly engine for CDA R2 clinical
// documents: a generic output tree, release-versioned template identity
// stamping, code-system resolution, nullFlavor handling for missing data,
// and composite builders that keep the narrative and structured views of
// the same clinical facts aligned through cross-reference identifiers.
//
// The engine is a pure in-memory computation. It performs no I/O, holds no
// global state, and a BuildContext must not be shared between concurrent
// builds.
package cda

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// Namespaces used on the document root.
const (
	Namespace     = "urn:hl7-org:v3"
	XSINamespace  = "http://www.w3.org/2001/XMLSchema-instance"
	SDTCNamespace = "urn:hl7-org:sdtc"
)

// Attr is a single element attribute. Attribute order is preserved as
// inserted so that serialization is byte-stable for identical input.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of the output tree: a tag, ordered attributes, an
// ordered list of children, and optional text content. Ownership is
// strictly tree-shaped; a node is attached to exactly one parent.
type Node struct {
	Tag      string
	Attrs    []Attr
	Children []*Node
	Text     string
}

// NewNode creates an element with the given tag.
func NewNode(tag string) *Node {
	return &Node{Tag: tag}
}

// SetAttr sets an attribute, replacing the value in place if the name is
// already present so that attribute order stays stable.
func (n *Node) SetAttr(name, value string) *Node {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return n
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
	return n
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetText sets the element's text content.
func (n *Node) SetText(text string) *Node {
	n.Text = text
	return n
}

// Append attaches child elements in order.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Find returns the first direct child with the given tag, or nil.
func (n *Node) Find(tag string) *Node {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// FindAll returns all direct children with the given tag.
func (n *Node) FindAll(tag string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// XML serializes the subtree in compact form.
func (n *Node) XML() string {
	var buf bytes.Buffer
	n.write(&buf, -1, 0)
	return buf.String()
}

// IndentXML serializes the subtree with two-space indentation.
func (n *Node) IndentXML() string {
	var buf bytes.Buffer
	n.write(&buf, 0, 0)
	return buf.String()
}

// Document serializes a complete document: the XML declaration followed by
// the root element carrying the CDA, xsi, and sdtc namespace declarations.
func Document(root *Node, indent bool) []byte {
	decl := *root
	decl.Attrs = append([]Attr{
		{Name: "xmlns", Value: Namespace},
		{Name: "xmlns:xsi", Value: XSINamespace},
		{Name: "xmlns:sdtc", Value: SDTCNamespace},
	}, root.Attrs...)

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if indent {
		decl.write(&buf, 0, 0)
	} else {
		decl.write(&buf, -1, 0)
	}
	return buf.Bytes()
}

// write renders the node. depth < 0 disables indentation.
func (n *Node) write(buf *bytes.Buffer, depth, level int) {
	indent := depth >= 0
	if indent && level > 0 {
		buf.WriteString("\n")
		buf.WriteString(strings.Repeat("  ", level))
	}

	buf.WriteByte('<')
	buf.WriteString(n.Tag)
	for _, a := range n.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		escape(buf, a.Value)
		buf.WriteByte('"')
	}

	if len(n.Children) == 0 && n.Text == "" {
		buf.WriteString("/>")
		return
	}

	buf.WriteByte('>')
	if n.Text != "" {
		escape(buf, n.Text)
	}
	for _, c := range n.Children {
		c.write(buf, depth, level+1)
	}
	if len(n.Children) > 0 && indent {
		buf.WriteString("\n")
		buf.WriteString(strings.Repeat("  ", level))
	}
	buf.WriteString("</")
	buf.WriteString(n.Tag)
	buf.WriteByte('>')
}

func escape(buf *bytes.Buffer, s string) {
	// xml.EscapeText never fails on a bytes.Buffer.
	_ = xml.EscapeText(buf, []byte(s))
}
