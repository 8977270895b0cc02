package bitfield

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widths(ws ...int) []Field {
	out := make([]Field, len(ws))
	for i, w := range ws {
		out[i] = Field{Width: w}
	}
	return out
}

func bitsOverride(n int) *int { return &n }

func TestValidate(t *testing.T) {
	minimal := Config{RowHeight: 20, CanvasWidth: 40, Lanes: 1, FontSize: 6}
	require.NoError(t, minimal.Validate())
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"row height", func(c *Config) { c.RowHeight = 19 }, "row_height"},
		{"canvas width", func(c *Config) { c.CanvasWidth = 39 }, "canvas_width"},
		{"no lanes", func(c *Config) { c.Lanes = 0 }, "lanes"},
		{"bits", func(c *Config) { c.Bits = bitsOverride(4) }, "bits"},
		{"explicit zero bits", func(c *Config) { c.Bits = bitsOverride(0) }, "bits"},
		{"font size", func(c *Config) { c.FontSize = 5 }, "font_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := minimal
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)

			var ce *ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestComputeLayoutContiguous(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lanes = 2
	l, err := ComputeLayout(widths(3, 5, 8), cfg)
	require.NoError(t, err)

	assert.Equal(t, 16, l.TotalBits)
	assert.Equal(t, 8, l.ModBits)
	require.Len(t, l.Fields, 3)

	next, sum := 0, 0
	for _, f := range l.Fields {
		assert.Equal(t, next, f.LSB)
		assert.Equal(t, f.LSB+f.Width-1, f.MSB)
		assert.Equal(t, f.LSB%l.ModBits, f.LSBInLane)
		assert.Equal(t, f.MSB%l.ModBits, f.MSBInLane)
		next = f.MSB + 1
		sum += f.Width
	}
	assert.Equal(t, l.TotalBits, sum)
	assert.Equal(t, 0, l.Fields[2].LSBInLane)
	assert.Equal(t, 7, l.Fields[2].MSBInLane)

	assert.Equal(t, 800.0, l.Width)
	assert.InDelta(t, 160.5, l.Height, 1e-9)
	assert.InDelta(t, 49.2, l.LaneHeight, 1e-9)
	assert.Equal(t, 1, l.MaxAttrCount)
}

func TestComputeLayoutDoesNotModifyInput(t *testing.T) {
	fields := []Field{{Name: "a", Width: 4}, {Name: "b", Width: 4}}
	_, err := ComputeLayout(fields, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []Field{{Name: "a", Width: 4}, {Name: "b", Width: 4}}, fields)
}

func TestComputeLayoutAttributes(t *testing.T) {
	fields := []Field{
		{Width: 4, Attribute: Attribute{Number(1), Text("RW")}},
		{Width: 4, Attribute: Attribute{Number(2)}},
	}
	l, err := ComputeLayout(fields, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, l.MaxAttrCount)
	assert.InDelta(t, 80-14*3.2, l.LaneHeight, 1e-9)

	cfg := DefaultConfig()
	cfg.Compact = true
	cfg.Lanes = 3
	l, err = ComputeLayout(fields, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 63.2, l.LaneHeight, 1e-9)
	assert.InDelta(t, 63.2*2+80+0.5, l.Height, 1e-9)
}

func TestComputeLayoutBitsOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bits = bitsOverride(32)
	cfg.Lanes = 4
	l, err := ComputeLayout(widths(4), cfg)
	require.NoError(t, err)
	assert.Equal(t, 32, l.TotalBits)
	assert.Equal(t, 8, l.ModBits)

	cfg = DefaultConfig()
	cfg.Bits = bitsOverride(8)
	l, err = ComputeLayout(widths(8, 8), cfg)
	require.NoError(t, err)
	assert.Equal(t, 8, l.TotalBits)
	_, ok := l.Segment(l.Fields[1], 0)
	assert.False(t, ok)
}

func TestComputeLayoutLegendHeight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Legend = Legend{{Label: "read", Type: Type2}}
	l, err := ComputeLayout(widths(8), cfg)
	require.NoError(t, err)
	assert.InDelta(t, 80+0.5+16.8, l.Height, 1e-9)
}

func TestComputeLayoutErrors(t *testing.T) {
	_, err := ComputeLayout(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrEmptyDiagram)

	_, err = ComputeLayout(widths(4, 0), DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidField)

	cfg := DefaultConfig()
	cfg.RowHeight = 10
	_, err = ComputeLayout(widths(8), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestUnevenSkip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lanes = 2
	cfg.Uneven = true

	l, err := ComputeLayout(widths(11), cfg)
	require.NoError(t, err)
	assert.Equal(t, 6, l.ModBits)
	assert.Equal(t, 0, l.Skip(0))
	assert.Equal(t, 1, l.Skip(1))

	l, err = ComputeLayout(widths(10), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, l.Skip(1))

	cfg.Uneven = false
	l, err = ComputeLayout(widths(11), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, l.Skip(1))
}

func TestLaneAndColumnMapping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lanes = 4
	l, err := ComputeLayout(widths(32), cfg)
	require.NoError(t, err)

	assert.Equal(t, 3, l.LaneAt(0))
	assert.Equal(t, 0, l.LaneAt(3))
	assert.Equal(t, 7, l.Column(0))
	assert.Equal(t, 0, l.Column(7))

	cfg.VFlip = true
	cfg.HFlip = true
	l, err = ComputeLayout(widths(32), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, l.LaneAt(0))
	assert.Equal(t, 0, l.Column(0))
	assert.Equal(t, 7, l.Column(7))
}

func TestSegmentClipping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lanes = 2
	l, err := ComputeLayout(widths(4, 12), cfg)
	require.NoError(t, err)
	f := l.Fields[1]

	s, ok := l.Segment(f, 0)
	require.True(t, ok)
	assert.Equal(t, Segment{LSB: 4, MSB: 7, LSBInLane: 4, MSBInLane: 7}, s)
	left, n := l.Span(s)
	assert.Equal(t, 0, left)
	assert.Equal(t, 4, n)

	s, ok = l.Segment(f, 1)
	require.True(t, ok)
	assert.Equal(t, Segment{LSB: 8, MSB: 15, LSBInLane: 0, MSBInLane: 7}, s)
	assert.Equal(t, 8, s.Bits())

	_, ok = l.Segment(l.Fields[0], 1)
	assert.False(t, ok)
}
