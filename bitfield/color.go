package bitfield

import (
	"fmt"
	"math"
)

// RGB is an 8-bit per channel color.
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// NeutralGray fills untyped and unrecognized fields.
var NeutralGray = RGB{229, 229, 229}

const (
	typeLightness  = 0.9
	typeSaturation = 1.0
)

// hue returns the color wheel angle in degrees for a recognized tag.
func (t TypeTag) hue() (float64, bool) {
	switch t {
	case Type2:
		return 0, true
	case Type3:
		return 80, true
	case Type4:
		return 170, true
	case Type5:
		return 45, true
	case Type6:
		return 126, true
	case Type7:
		return 215, true
	case TypeNone, TypeUnknown:
		return 0, false
	}
	return 0, false
}

// Color returns the fill for the tag.
func (t TypeTag) Color() RGB {
	h, ok := t.hue()
	if !ok {
		return NeutralGray
	}
	return hlsToRGB(h, typeLightness, typeSaturation)
}

// hlsToRGB converts hue (degrees), lightness and saturation to RGB.
func hlsToRGB(h, l, s float64) RGB {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return RGB{channel(r + m), channel(g + m), channel(b + m)}
}

func channel(v float64) uint8 {
	v = math.Round(v * 255)
	return uint8(math.Max(0, math.Min(255, v)))
}
