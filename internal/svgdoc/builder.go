package svgdoc

import (
	"errors"
	"fmt"
)

// ErrUnbalanced is returned by Finish when Open and Close calls do not pair.
var ErrUnbalanced = errors.New("svgdoc: unbalanced group nesting")

const xmlns = "http://www.w3.org/2000/svg"

// Style is presentation state attached to a group. It applies to everything
// emitted inside the group until the matching Close. Zero fields are omitted.
type Style struct {
	Class         string
	TextAnchor    string
	FontSize      float64
	FontFamily    string
	FontWeight    string
	Fill          string
	Stroke        string
	StrokeWidth   float64
	StrokeLinecap string
}

func (s Style) attrs() []Attr {
	var out []Attr
	add := func(name, value string) {
		if value != "" {
			out = append(out, Attr{Name: name, Value: value})
		}
	}
	add("class", s.Class)
	add("text-anchor", s.TextAnchor)
	if s.FontSize > 0 {
		add("font-size", Num(s.FontSize))
	}
	add("font-family", s.FontFamily)
	add("font-weight", s.FontWeight)
	add("fill", s.Fill)
	add("stroke", s.Stroke)
	if s.StrokeWidth > 0 {
		add("stroke-width", Num(s.StrokeWidth))
	}
	add("stroke-linecap", s.StrokeLinecap)
	return out
}

// Builder accumulates an SVG document. Groups opened with Open must be
// closed with Close before Finish.
type Builder struct {
	root  *Node
	stack []*Node
	err   error
}

// NewBuilder starts a document whose root element is sized width x height
// with a matching viewBox.
func NewBuilder(width, height float64) *Builder {
	w, h := Num(width), Num(height)
	root := Element("svg",
		Attr{"xmlns", xmlns},
		Attr{"width", w},
		Attr{"height", h},
		Attr{"viewBox", fmt.Sprintf("0 0 %s %s", w, h)},
	)
	return &Builder{root: root, stack: []*Node{root}}
}

// Root returns the document root element.
func (b *Builder) Root() *Node { return b.root }

func (b *Builder) top() *Node { return b.stack[len(b.stack)-1] }

// Open starts a group. An empty transform is omitted.
func (b *Builder) Open(transform string, style Style) {
	g := Element("g", style.attrs()...)
	if transform != "" {
		g.Attrs = append(g.Attrs, Attr{"transform", transform})
	}
	b.top().Append(g)
	b.stack = append(b.stack, g)
}

// Close ends the innermost open group.
func (b *Builder) Close() {
	if len(b.stack) == 1 {
		b.err = ErrUnbalanced
		return
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// Text emits a text element at (x, y). Inline markup in label is turned
// into tspan runs, see ParseMarkup.
func (b *Builder) Text(x, y float64, label string, attrs ...Attr) {
	t := Element("text", append([]Attr{{"x", Num(x)}, {"y", Num(y)}}, attrs...)...)
	for _, span := range ParseMarkup(label) {
		if len(span.Attrs) == 0 {
			t.Append(CharData(span.Text))
			continue
		}
		ts := Element("tspan", span.Attrs...)
		ts.Append(CharData(span.Text))
		t.Append(ts)
	}
	if len(t.Children) == 0 {
		t.Append(CharData(""))
	}
	b.top().Append(t)
}

// Rect emits a rectangle.
func (b *Builder) Rect(x, y, width, height float64, attrs ...Attr) {
	base := []Attr{{"x", Num(x)}, {"y", Num(y)}, {"width", Num(width)}, {"height", Num(height)}}
	b.top().Append(Element("rect", append(base, attrs...)...))
}

// Line emits a line segment.
func (b *Builder) Line(x1, y1, x2, y2 float64, attrs ...Attr) {
	base := []Attr{{"x1", Num(x1)}, {"y1", Num(y1)}, {"x2", Num(x2)}, {"y2", Num(y2)}}
	b.top().Append(Element("line", append(base, attrs...)...))
}

// Finish serializes the document.
func (b *Builder) Finish(pretty bool) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if len(b.stack) != 1 {
		return "", fmt.Errorf("%w: %d group(s) left open", ErrUnbalanced, len(b.stack)-1)
	}
	return Encode(b.root, pretty), nil
}
