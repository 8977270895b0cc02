// Package svgdoc builds SVG documents as a small node tree and serializes
// them once, either compact (one element per line) or indented.
package svgdoc

import (
	"math"
	"strconv"
	"strings"
)

// Attr is a single XML attribute. Attribute order is preserved on output.
type Attr struct {
	Name  string
	Value string
}

// Node is an element, or a run of character data when Name is empty.
type Node struct {
	Name     string
	Attrs    []Attr
	Children []*Node
	Text     string
}

// Element returns a new element node.
func Element(name string, attrs ...Attr) *Node {
	return &Node{Name: name, Attrs: attrs}
}

// CharData returns a character data node.
func CharData(s string) *Node {
	return &Node{Text: s}
}

// Append adds children to n.
func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// IsCharData reports whether n holds text rather than an element.
func (n *Node) IsCharData() bool { return n.Name == "" }

// Attr returns the value of the named attribute, or "" when absent.
func (n *Node) Attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// TextContent concatenates all character data below n.
func (n *Node) TextContent() string {
	if n.IsCharData() {
		return n.Text
	}
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}

// Walk visits n and its descendants in document order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// inline reports whether n must be written on a single line, which is the
// case for any element carrying character data (text and its tspans).
func (n *Node) inline() bool {
	for _, c := range n.Children {
		if c.IsCharData() {
			return true
		}
	}
	return false
}

// Num formats a coordinate with at most three decimals and no trailing zeros.
func Num(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		return "0" // avoids "-0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Translate returns a translate transform.
func Translate(x, y float64) string {
	return "translate(" + Num(x) + ", " + Num(y) + ")"
}

// Rotate returns a rotate transform around (cx, cy).
func Rotate(angle, cx, cy float64) string {
	return "rotate(" + Num(angle) + ", " + Num(cx) + ", " + Num(cy) + ")"
}

// escapeXML escapes text for use in character data and attribute values.
func escapeXML(s string) string {
	if !strings.ContainsAny(s, "&<>\"'\n\r") {
		return s
	}
	var buf strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		case '\n':
			buf.WriteString("&#10;")
		case '\r':
			buf.WriteString("&#13;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
