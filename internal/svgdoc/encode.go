package svgdoc

import "strings"

const (
	declaration = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>`
	indentUnit  = "  "
)

// Encode serializes root as a complete SVG document. Every element starts on
// its own line; elements holding character data stay on one line. When
// pretty is set each line is indented by its nesting depth, which yields
// exactly Beautify of the compact form.
func Encode(root *Node, pretty bool) string {
	var sb strings.Builder
	sb.WriteString(declaration)
	sb.WriteByte('\n')
	writeNode(&sb, root, 0, pretty)
	return sb.String()
}

func writeNode(sb *strings.Builder, n *Node, depth int, pretty bool) {
	if pretty {
		sb.WriteString(strings.Repeat(indentUnit, depth))
	}
	switch {
	case n.IsCharData():
		sb.WriteString(escapeXML(n.Text))
	case n.inline():
		writeInline(sb, n)
	case len(n.Children) == 0:
		writeStart(sb, n)
		sb.WriteString("/>")
	default:
		writeStart(sb, n)
		sb.WriteString(">\n")
		for _, c := range n.Children {
			writeNode(sb, c, depth+1, pretty)
		}
		if pretty {
			sb.WriteString(strings.Repeat(indentUnit, depth))
		}
		sb.WriteString("</" + n.Name + ">")
	}
	sb.WriteByte('\n')
}

func writeInline(sb *strings.Builder, n *Node) {
	if n.IsCharData() {
		sb.WriteString(escapeXML(n.Text))
		return
	}
	writeStart(sb, n)
	if len(n.Children) == 0 {
		sb.WriteString("/>")
		return
	}
	sb.WriteByte('>')
	for _, c := range n.Children {
		writeInline(sb, c)
	}
	sb.WriteString("</" + n.Name + ">")
}

func writeStart(sb *strings.Builder, n *Node) {
	sb.WriteByte('<')
	sb.WriteString(n.Name)
	for _, a := range n.Attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Name)
		sb.WriteString(`="`)
		sb.WriteString(escapeXML(a.Value))
		sb.WriteByte('"')
	}
}
