package bitfield

import (
	"math"
	"strconv"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/buffos/go-bitfield/internal/svgdoc"
)

// nameBaseline places a name's baseline roughly on the lane's center line.
const nameBaseline = 0.35

// laneOffset returns the vertical offset of the lane group at stacking
// position pos, and the offset of its bordered area inside the group.
func (r *renderer) laneOffset(pos int) (laneY, cageTop float64) {
	header := r.cfg.FontSize * headerScale
	switch {
	case !r.cfg.Compact:
		laneY, cageTop = float64(pos)*r.cfg.RowHeight, header
	case pos == 0:
		laneY, cageTop = 0, header
	default:
		laneY = float64(pos-1)*r.layout.LaneHeight + r.cfg.RowHeight
	}
	if r.layout.legend {
		laneY += header
	}
	return laneY, cageTop
}

func (r *renderer) lane(b *svgdoc.Builder, pos int) {
	lane := r.layout.LaneAt(pos)
	laneY, cageTop := r.laneOffset(pos)

	b.Open(svgdoc.Translate(0, laneY), svgdoc.Style{Class: "lane"})

	labels := r.fontStyle("labels")
	labels.TextAnchor = "middle"
	b.Open("", labels)
	r.bitNumbers(b, pos, lane)
	r.blocks(b, lane, cageTop)
	r.names(b, lane, cageTop)
	if !r.cfg.Compact {
		r.attributes(b, lane, cageTop)
	}
	b.Close()

	r.cage(b, pos, lane, cageTop)
	b.Close()
}

// bitNumbers writes the bit indexes at field boundaries. Compact diagrams
// carry a single run of in-lane indexes on the top lane instead.
func (r *renderer) bitNumbers(b *svgdoc.Builder, pos, lane int) {
	if r.cfg.Compact && pos > 0 {
		return
	}
	l := r.layout
	b.Open(svgdoc.Translate(r.step/2, r.cfg.FontSize), svgdoc.Style{Class: "bits"})
	if r.cfg.Compact {
		for bit := 0; bit < l.ModBits; bit++ {
			b.Text(r.step*float64(l.Column(bit)), 0, strconv.Itoa(bit))
		}
		b.Close()
		return
	}
	for _, f := range l.Fields {
		s, ok := l.Segment(f, lane)
		if !ok {
			continue
		}
		b.Text(r.step*float64(l.Column(s.LSBInLane)), 0, strconv.Itoa(s.LSB))
		if s.MSB != s.LSB {
			b.Text(r.step*float64(l.Column(s.MSBInLane)), 0, strconv.Itoa(s.MSB))
		}
	}
	b.Close()
}

// blocks fills the background of unnamed and typed fields.
func (r *renderer) blocks(b *svgdoc.Builder, lane int, cageTop float64) {
	l := r.layout
	b.Open(svgdoc.Translate(0, cageTop), svgdoc.Style{Class: "blocks"})
	for _, f := range l.Fields {
		if f.Name != "" && f.Type == TypeNone {
			continue
		}
		s, ok := l.Segment(f, lane)
		if !ok {
			continue
		}
		if f.Type == TypeUnknown {
			Logger().Debug("unrecognized type tag, using neutral fill", zap.Int("lsb", f.LSB))
		}
		left, n := l.Span(s)
		b.Rect(r.step*float64(left), 0, r.step*float64(n), l.LaneHeight,
			svgdoc.Attr{Name: "fill", Value: f.Type.Color().String()})
	}
	b.Close()
}

func (r *renderer) names(b *svgdoc.Builder, lane int, cageTop float64) {
	l := r.layout
	y := cageTop + l.LaneHeight/2 + r.cfg.FontSize*nameBaseline
	b.Open(svgdoc.Translate(0, y), svgdoc.Style{Class: "names"})
	for _, f := range l.Fields {
		if f.Name == "" {
			continue
		}
		s, ok := l.Segment(f, lane)
		if !ok {
			continue
		}
		left, n := l.Span(s)
		x := r.step * (float64(left) + float64(n)/2)
		name := trimName(f.Name, r.step*float64(n), r.cfg.TrimCharWidth)
		if name != f.Name {
			Logger().Debug("trimmed field name", zap.String("name", f.Name), zap.String("shown", name))
		}
		var attrs []svgdoc.Attr
		if f.Rotation != 0 {
			attrs = append(attrs, svgdoc.Attr{Name: "transform", Value: svgdoc.Rotate(f.Rotation, x, 0)})
		}
		if f.Overline {
			attrs = append(attrs, svgdoc.Attr{Name: "text-decoration", Value: "overline"})
		}
		b.Text(x, 0, name, attrs...)
	}
	b.Close()
}

// attributes writes the attribute rows under the lane border. Numbers are
// spelled out one bit per column, continuing the field's bit numbering
// across lanes.
func (r *renderer) attributes(b *svgdoc.Builder, lane int, cageTop float64) {
	l := r.layout
	b.Open(svgdoc.Translate(0, cageTop+l.LaneHeight), svgdoc.Style{Class: "attrs"})
	for _, f := range l.Fields {
		if len(f.Attribute) == 0 {
			continue
		}
		s, ok := l.Segment(f, lane)
		if !ok {
			continue
		}
		left, n := l.Span(s)
		for row, v := range f.Attribute {
			y := r.cfg.FontSize * float64(row+1)
			switch v.Kind {
			case AttrNumber:
				for bit := s.LSBInLane; bit <= s.MSBInLane; bit++ {
					shift := s.LSB - f.LSB + bit - s.LSBInLane
					digit := "0"
					if shift < 64 && v.Num>>uint(shift)&1 == 1 {
						digit = "1"
					}
					b.Text(r.step*(float64(l.Column(bit))+0.5), y, digit)
				}
			case AttrText:
				b.Text(r.step*(float64(left)+float64(n)/2), y, v.Text)
			}
		}
	}
	b.Close()
}

// cage draws the lane border, full-height separators at lane edges and field
// boundaries, and short ticks at the remaining bit positions.
func (r *renderer) cage(b *svgdoc.Builder, pos, lane int, cageTop float64) {
	l := r.layout
	sw := r.cfg.StrokeWidth
	b.Open(svgdoc.Translate(0, cageTop), svgdoc.Style{
		Class:         "cage",
		Stroke:        "black",
		StrokeWidth:   sw,
		StrokeLinecap: "round",
	})

	pitch := (r.cfg.CanvasWidth - sw) / float64(l.ModBits)
	skip := l.Skip(lane)
	x0 := sw / 2
	if !r.cfg.HFlip {
		x0 += float64(skip) * pitch
	}
	x1 := x0 + float64(l.ModBits-skip)*pitch
	top, bottom := r.borders(pos)
	if top {
		b.Line(x0, 0, x1, 0)
	}
	if bottom {
		b.Line(x0, l.LaneHeight, x1, l.LaneHeight)
	}

	base := lane * l.ModBits
	valid := func(col int) bool {
		return col >= 0 && col < l.ModBits && base+l.Column(col) < l.TotalBits
	}
	tick := l.LaneHeight / 8
	for k := 0; k <= l.ModBits; k++ {
		leftOK, rightOK := valid(k-1), valid(k)
		if !leftOK && !rightOK {
			continue
		}
		x := sw/2 + float64(k)*pitch
		full := leftOK != rightOK
		if !full {
			upper := base + max(l.Column(k-1), l.Column(k))
			full = r.edges[upper]
		}
		if full {
			b.Line(x, 0, x, l.LaneHeight)
			continue
		}
		b.Line(x, 0, x, tick)
		b.Line(x, l.LaneHeight-tick, x, l.LaneHeight)
	}
	b.Close()
}

// borders reports which horizontal borders the lane at pos draws. Compact
// lanes share borders, so each shared line is drawn once, by the lane that
// is never shortened by an uneven layout.
func (r *renderer) borders(pos int) (top, bottom bool) {
	switch {
	case !r.cfg.Compact:
		return true, true
	case r.cfg.VFlip:
		return pos == 0, true
	default:
		return true, pos == r.layout.Lanes-1
	}
}

// trimName shortens name to fit width when each character is estimated at
// charWidth units. At least one character is kept before the ellipsis. Names
// too short to gain anything from an ellipsis are cut without one.
func trimName(name string, width, charWidth float64) string {
	if charWidth <= 0 {
		return name
	}
	n := utf8.RuneCountInString(name)
	textWidth := float64(n) * charWidth
	if textWidth <= width || n < 2 {
		return name
	}
	runes := []rune(name)
	keep := n - int((textWidth-width)/charWidth) - 3
	if keep < 1 {
		keep = 1
	}
	if keep+3 < n {
		return string(runes[:keep]) + "..."
	}
	cut := n - int(math.Ceil((textWidth-width)/charWidth))
	cut = max(1, min(cut, n-1))
	return string(runes[:cut])
}
