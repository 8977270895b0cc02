package svgdoc

import (
	"strings"

	"golang.org/x/net/html"
)

// Span is a run of label text sharing one set of tspan attributes.
type Span struct {
	Text  string
	Attrs []Attr
}

var markupTags = map[string]bool{
	"b": true, "i": true, "u": true, "ins": true, "s": true,
	"o": true, "sub": true, "sup": true, "tt": true,
}

// ParseMarkup splits a label into styled runs. Recognized tags are
// <b> <i> <u> (or <ins>) <s> <o> <sub> <sup> <tt>; they may nest. Any other
// markup is kept as literal text.
func ParseMarkup(label string) []Span {
	if !strings.ContainsAny(label, "<&") {
		if label == "" {
			return nil
		}
		return []Span{{Text: label}}
	}

	var (
		spans  []Span
		active []string
	)
	emit := func(text string) {
		if text == "" {
			return
		}
		attrs := markupAttrs(active)
		if n := len(spans); n > 0 && sameAttrs(spans[n-1].Attrs, attrs) {
			spans[n-1].Text += text
			return
		}
		spans = append(spans, Span{Text: text, Attrs: attrs})
	}

	z := html.NewTokenizer(strings.NewReader(label))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// a tag left open at the end of the label is plain text
			emit(string(z.Raw()))
			return spans
		case html.TextToken:
			emit(string(z.Text()))
		case html.StartTagToken:
			raw := string(z.Raw())
			name, _ := z.TagName()
			if tag := string(name); markupTags[tag] {
				active = append(active, tag)
			} else {
				emit(raw)
			}
		case html.EndTagToken:
			raw := string(z.Raw())
			name, _ := z.TagName()
			if tag := string(name); markupTags[tag] && closeTag(&active, tag) {
				continue
			}
			emit(raw)
		default:
			emit(string(z.Raw()))
		}
	}
}

// closeTag removes the innermost open occurrence of tag.
func closeTag(active *[]string, tag string) bool {
	s := *active
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == tag {
			*active = append(s[:i:i], s[i+1:]...)
			return true
		}
	}
	return false
}

func markupAttrs(active []string) []Attr {
	if len(active) == 0 {
		return nil
	}
	var (
		weight, style, family, size, shift string
		decorations                        []string
	)
	decorate := func(d string) {
		for _, have := range decorations {
			if have == d {
				return
			}
		}
		decorations = append(decorations, d)
	}
	for _, tag := range active {
		switch tag {
		case "b":
			weight = "bold"
		case "i":
			style = "italic"
		case "u", "ins":
			decorate("underline")
		case "s":
			decorate("line-through")
		case "o":
			decorate("overline")
		case "sub":
			size, shift = "70%", "sub"
		case "sup":
			size, shift = "70%", "super"
		case "tt":
			family = "monospace"
		}
	}
	var attrs []Attr
	add := func(name, value string) {
		if value != "" {
			attrs = append(attrs, Attr{name, value})
		}
	}
	add("font-weight", weight)
	add("font-style", style)
	add("text-decoration", strings.Join(decorations, " "))
	add("font-family", family)
	add("font-size", size)
	add("baseline-shift", shift)
	return attrs
}

func sameAttrs(a, b []Attr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
