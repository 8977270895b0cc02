// Package bitfield renders register and protocol bitfield diagrams as SVG.
//
// A diagram is an ordered list of fields laid out from bit 0 upwards and
// split across one or more lanes (rows). Render is the only entry point that
// produces markup; it validates the configuration, computes the layout and
// emits one SVG document per call. Calls share no state and may run
// concurrently.
package bitfield

import (
	"github.com/buffos/go-bitfield/internal/svgdoc"
)

// Render draws fields with cfg and returns the SVG document. The output is
// indented when cfg.Beautify is set.
func Render(fields []Field, cfg Config) (string, error) {
	b, err := build(fields, cfg)
	if err != nil {
		return "", err
	}
	return b.Finish(cfg.Beautify)
}

// Beautify re-indents SVG markup. It is idempotent and only changes
// whitespace between lines.
func Beautify(svg string) string {
	return svgdoc.Beautify(svg)
}

type renderer struct {
	layout *Layout
	cfg    Config
	step   float64      // horizontal pitch of one bit for labels and blocks
	edges  map[int]bool // absolute bits that start a field or follow one
}

func build(fields []Field, cfg Config) (*svgdoc.Builder, error) {
	layout, err := ComputeLayout(fields, cfg)
	if err != nil {
		return nil, err
	}
	r := &renderer{
		layout: layout,
		cfg:    cfg,
		step:   cfg.CanvasWidth / float64(layout.ModBits),
		edges:  make(map[int]bool, 2*len(layout.Fields)),
	}
	for _, f := range layout.Fields {
		r.edges[f.LSB] = true
		r.edges[f.MSB+1] = true
	}

	b := svgdoc.NewBuilder(layout.Width, layout.Height)
	if layout.legend {
		r.legend(b)
	}
	for pos := 0; pos < layout.Lanes; pos++ {
		r.lane(b, pos)
	}
	return b, nil
}

func (r *renderer) fontStyle(class string) svgdoc.Style {
	return svgdoc.Style{
		Class:      class,
		FontSize:   r.cfg.FontSize,
		FontFamily: r.cfg.FontFamily,
		FontWeight: r.cfg.FontWeight,
	}
}

const (
	swatchSize    = 12
	swatchPadding = 20 // swatch to its label
	labelPadding  = 64 // label to the next swatch
)

// legend draws the swatch row above the first lane, centered on the canvas.
func (r *renderer) legend(b *svgdoc.Builder) {
	entries := r.cfg.Legend
	b.Open(svgdoc.Translate(0, r.cfg.StrokeWidth/2), r.fontStyle("legend"))
	x := r.cfg.CanvasWidth/2 - float64(len(entries))/2*(swatchPadding+labelPadding)
	for _, e := range entries {
		b.Rect(x, 0, swatchSize, swatchSize,
			svgdoc.Attr{Name: "fill", Value: e.Type.Color().String()},
			svgdoc.Attr{Name: "stroke", Value: "black"},
			svgdoc.Attr{Name: "stroke-width", Value: svgdoc.Num(r.cfg.StrokeWidth)},
		)
		x += swatchPadding
		b.Text(x, r.cfg.FontSize/headerScale, e.Label)
		x += labelPadding
	}
	b.Close()
}
