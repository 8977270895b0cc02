package bitfield

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrEmptyDiagram is returned when there are no bits to draw.
	ErrEmptyDiagram = errors.New("bitfield: diagram has no bits")
	// ErrInvalidField is returned for a field whose width is not positive.
	ErrInvalidField = errors.New("bitfield: invalid field")
)

// headerScale is the height of the bit-number row in font sizes.
const headerScale = 1.2

// Layout is the geometry of one render. It is computed once and never
// modified afterwards.
type Layout struct {
	Fields       []PositionedField
	TotalBits    int
	ModBits      int // bits per lane
	Lanes        int
	MaxAttrCount int
	LaneHeight   float64 // height of the bordered part of a lane
	Width        float64
	Height       float64

	skip   int // unused bits of the last lane when drawn uneven
	hflip  bool
	vflip  bool
	legend bool
}

// Segment is the part of a field that falls inside one lane.
type Segment struct {
	LSB, MSB             int
	LSBInLane, MSBInLane int
}

// Bits returns the number of bits in the segment.
func (s Segment) Bits() int { return s.MSBInLane - s.LSBInLane + 1 }

// ComputeLayout validates cfg and assigns bit positions and dimensions.
// The input slice is not modified.
func ComputeLayout(fields []Field, cfg Config) (*Layout, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sum := 0
	for i, f := range fields {
		if f.Width <= 0 {
			return nil, fmt.Errorf("%w: field %d (%q) has %d bits", ErrInvalidField, i, f.Name, f.Width)
		}
		sum += f.Width
	}
	total := sum
	if cfg.Bits != nil {
		total = *cfg.Bits
		if total < sum {
			Logger().Debug("bit override is smaller than the field widths, excess fields are not drawn",
				zap.Int("bits", total), zap.Int("sum", sum))
		}
	}
	if total == 0 {
		return nil, ErrEmptyDiagram
	}

	l := &Layout{
		TotalBits:    total,
		ModBits:      (total + cfg.Lanes - 1) / cfg.Lanes,
		Lanes:        cfg.Lanes,
		MaxAttrCount: 1, // one row is always reserved
		Width:        cfg.CanvasWidth,
		hflip:        cfg.HFlip,
		vflip:        cfg.VFlip,
		legend:       len(cfg.Legend) > 0,
	}

	l.Fields = make([]PositionedField, len(fields))
	lsb := 0
	for i, f := range fields {
		msb := lsb + f.Width - 1
		l.Fields[i] = PositionedField{
			Field:     f,
			LSB:       lsb,
			MSB:       msb,
			LSBInLane: lsb % l.ModBits,
			MSBInLane: msb % l.ModBits,
		}
		lsb += f.Width
		l.MaxAttrCount = max(l.MaxAttrCount, len(f.Attribute))
	}

	half := cfg.StrokeWidth / 2
	if cfg.Compact {
		l.LaneHeight = cfg.RowHeight - cfg.FontSize*headerScale
		l.Height = l.LaneHeight*float64(cfg.Lanes-1) + cfg.RowHeight + half
	} else {
		l.LaneHeight = cfg.RowHeight - cfg.FontSize*(headerScale+float64(l.MaxAttrCount))
		l.Height = cfg.RowHeight*float64(cfg.Lanes) + half
	}
	if l.legend {
		l.Height += cfg.FontSize * headerScale
	}

	if cfg.Uneven && cfg.Lanes > 1 {
		if rem := total % l.ModBits; rem != 0 {
			l.skip = l.ModBits - rem
		}
	}
	return l, nil
}

// LaneAt returns the lane drawn at stacking position pos, counted from the
// top of the canvas.
func (l *Layout) LaneAt(pos int) int {
	if l.vflip {
		return pos
	}
	return l.Lanes - pos - 1
}

// Skip returns how many bit positions of lane are left undrawn at its
// high end. Only the last lane of an uneven layout has any.
func (l *Layout) Skip(lane int) int {
	if lane == l.Lanes-1 {
		return l.skip
	}
	return 0
}

// Column maps a bit index within a lane to its column counted from the left
// edge. Bit 0 is rightmost unless the layout is flipped horizontally. The
// mapping is its own inverse.
func (l *Layout) Column(bit int) int {
	if l.hflip {
		return bit
	}
	return l.ModBits - 1 - bit
}

// Span returns the leftmost column and column count covered by s.
func (l *Layout) Span(s Segment) (left, n int) {
	if l.hflip {
		return s.LSBInLane, s.Bits()
	}
	return l.ModBits - 1 - s.MSBInLane, s.Bits()
}

// Segment clips f to lane. It reports false when f has no bits in lane.
func (l *Layout) Segment(f PositionedField, lane int) (Segment, bool) {
	lo := lane * l.ModBits
	hi := lo + l.ModBits - 1
	if f.MSB < lo || f.LSB > hi {
		return Segment{}, false
	}
	s := Segment{LSB: max(f.LSB, lo), MSB: min(f.MSB, hi)}
	s.LSBInLane = s.LSB - lo
	s.MSBInLane = s.MSB - lo
	return s, true
}
