package bitfield

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is matched by every configuration validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError names the configuration value that failed validation.
type ConfigError struct {
	Field      string
	Constraint string
	Value      any
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s must be %s, got %v", e.Field, e.Constraint, e.Value)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// Config controls one render. The zero value is not valid; start from
// DefaultConfig.
type Config struct {
	RowHeight     float64 `json:"row_height" yaml:"row_height"`
	CanvasWidth   float64 `json:"canvas_width" yaml:"canvas_width"`
	Lanes         int     `json:"lanes" yaml:"lanes"`
	Bits          *int    `json:"bits,omitempty" yaml:"bits,omitempty"` // total bit override, nil means sum of widths
	FontSize      float64 `json:"font_size" yaml:"font_size"`
	FontFamily    string  `json:"font_family" yaml:"font_family"`
	FontWeight    string  `json:"font_weight" yaml:"font_weight"`
	Compact       bool    `json:"compact" yaml:"compact"`
	HFlip         bool    `json:"hflip" yaml:"hflip"`
	VFlip         bool    `json:"vflip" yaml:"vflip"`
	StrokeWidth   float64 `json:"stroke_width" yaml:"stroke_width"`
	TrimCharWidth float64 `json:"trim" yaml:"trim"` // 0 disables name trimming
	Uneven        bool    `json:"uneven" yaml:"uneven"`
	Legend        Legend  `json:"legend" yaml:"legend"`
	Beautify      bool    `json:"beautify" yaml:"beautify"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		RowHeight:   80,
		CanvasWidth: 800,
		Lanes:       1,
		FontSize:    14,
		FontFamily:  "sans-serif",
		FontWeight:  "normal",
		StrokeWidth: 1,
	}
}

// Validate checks the bounded values, reporting the first violation.
func (c Config) Validate() error {
	switch {
	case c.RowHeight <= 19:
		return &ConfigError{Field: "row_height", Constraint: "> 19", Value: c.RowHeight}
	case c.CanvasWidth <= 39:
		return &ConfigError{Field: "canvas_width", Constraint: "> 39", Value: c.CanvasWidth}
	case c.Lanes < 1:
		return &ConfigError{Field: "lanes", Constraint: ">= 1", Value: c.Lanes}
	case c.Bits != nil && *c.Bits <= 4:
		return &ConfigError{Field: "bits", Constraint: "> 4", Value: *c.Bits}
	case c.FontSize <= 5:
		return &ConfigError{Field: "font_size", Constraint: "> 5", Value: c.FontSize}
	}
	return nil
}

// LegendEntry is one swatch of the legend.
type LegendEntry struct {
	Label string
	Type  TypeTag
}

// Legend is an ordered label to type tag mapping. Decoding keeps the key
// order of the source object or mapping.
type Legend []LegendEntry

func (l *Legend) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*l = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("legend: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("legend: expected an object")
	}
	var out Legend
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("legend: %w", err)
		}
		label, _ := tok.(string)
		var tag TypeTag
		if err := dec.Decode(&tag); err != nil {
			return fmt.Errorf("legend %q: %w", label, err)
		}
		out = append(out, LegendEntry{Label: label, Type: tag})
	}
	*l = out
	return nil
}

func (l *Legend) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" {
		*l = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("legend: line %d: expected a mapping", value.Line)
	}
	out := make(Legend, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var tag TypeTag
		if err := value.Content[i+1].Decode(&tag); err != nil {
			return err
		}
		out = append(out, LegendEntry{Label: value.Content[i].Value, Type: tag})
	}
	*l = out
	return nil
}
