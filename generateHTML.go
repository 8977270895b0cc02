// generateHTML.go
package main

import (
	"fmt"
	"html"
	"strings"

	"github.com/buffos/go-bitfield/bitfield"
)

// generateHTML wraps a rendered diagram in a standalone page. The SVG is
// inlined without its XML declaration.
func generateHTML(title, svg string, cfg bitfield.Config) string {
	svg = strings.TrimSpace(svg)
	if strings.HasPrefix(svg, "<?xml") {
		if i := strings.Index(svg, "?>"); i >= 0 {
			svg = strings.TrimSpace(svg[i+2:])
		}
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("<style>\n")
	fmt.Fprintf(&b, "body { margin: 0; padding: 40px; font-family: %s; font-weight: %s; }\n",
		escapeCSS(cfg.FontFamily), escapeCSS(cfg.FontWeight))
	fmt.Fprintf(&b, ".bitfield { max-width: %spx; }\n", formatPx(cfg.CanvasWidth))
	b.WriteString(".bitfield svg { display: block; width: 100%; height: auto; }\n")
	b.WriteString("</style>\n</head>\n<body>\n")
	b.WriteString("<div class=\"bitfield\">\n")
	b.WriteString(svg)
	b.WriteString("\n</div>\n</body>\n</html>\n")
	return b.String()
}

func formatPx(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}

// escapeCSS keeps a value from closing the declaration or the style block.
func escapeCSS(s string) string {
	r := strings.NewReplacer(`"`, `\"`, `'`, `\'`, ";", `\;`, "<", `\3c `, "}", `\}`)
	return r.Replace(s)
}
