package svgdoc

import "strings"

// Beautify re-indents line-oriented SVG markup. A closing-tag line is
// outdented before it is written, an opening-tag line indents the lines
// that follow it, and every other line keeps its content. Blank lines are
// dropped. Beautify(Beautify(s)) == Beautify(s).
func Beautify(s string) string {
	var sb strings.Builder
	depth := 0
	for _, raw := range strings.Split(s, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "</") && depth > 0 {
			depth--
		}
		sb.WriteString(strings.Repeat(indentUnit, depth))
		sb.WriteString(line)
		sb.WriteByte('\n')
		if opensElement(line) {
			depth++
		}
	}
	return sb.String()
}

// opensElement reports whether line is a start tag left open at line end.
func opensElement(line string) bool {
	if !strings.HasPrefix(line, "<") {
		return false
	}
	if strings.HasPrefix(line, "</") || strings.HasPrefix(line, "<?") || strings.HasPrefix(line, "<!") {
		return false
	}
	return !strings.HasSuffix(line, "/>") && !strings.Contains(line, "</")
}
