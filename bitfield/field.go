package bitfield

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field describes one contiguous run of bits. Fields are laid out in slice
// order starting from bit 0.
type Field struct {
	Name      string    `json:"name" yaml:"name"`
	Width     int       `json:"bits" yaml:"bits"`
	Type      TypeTag   `json:"type" yaml:"type"`
	Attribute Attribute `json:"attr" yaml:"attr"`
	Rotation  float64   `json:"rotate" yaml:"rotate"`
	Overline  bool      `json:"overline" yaml:"overline"`
}

// PositionedField is a Field with the bit range assigned by ComputeLayout.
type PositionedField struct {
	Field
	LSB, MSB             int // absolute bit range, inclusive
	LSBInLane, MSBInLane int // the same positions modulo the lane width
}

// AttrKind tells how an attribute value is drawn.
type AttrKind uint8

const (
	AttrEmpty  AttrKind = iota // skipped, still occupies its row
	AttrNumber                 // drawn bit by bit
	AttrText                   // drawn centered over the field
)

// AttrValue is one attribute row of a field.
type AttrValue struct {
	Kind AttrKind
	Num  uint64
	Text string
}

// Number returns a numeric attribute value.
func Number(n uint64) AttrValue { return AttrValue{Kind: AttrNumber, Num: n} }

// Text returns a textual attribute value.
func Text(s string) AttrValue { return AttrValue{Kind: AttrText, Text: s} }

// Attribute holds the attribute rows of a field. A scalar in the input
// decodes to a single row.
type Attribute []AttrValue

// UnmarshalJSON accepts a scalar or a list of scalars. Unsigned integers
// become numbers; any other value is kept as text.
func (a *Attribute) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*a = nil
		return nil
	}
	if data[0] != '[' {
		v, err := attrFromJSON(data)
		if err != nil {
			return err
		}
		*a = Attribute{v}
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("attr: %w", err)
	}
	out := make(Attribute, 0, len(raw))
	for _, r := range raw {
		v, err := attrFromJSON(r)
		if err != nil {
			return err
		}
		out = append(out, v)
	}
	*a = out
	return nil
}

func attrFromJSON(raw json.RawMessage) (AttrValue, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || string(raw) == "null":
		return AttrValue{}, nil
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return AttrValue{}, fmt.Errorf("attr: %w", err)
		}
		return Text(s), nil
	}
	if n, err := strconv.ParseUint(string(raw), 10, 64); err == nil {
		return Number(n), nil
	}
	return Text(string(raw)), nil
}

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (a *Attribute) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*a = nil
			return nil
		}
		*a = Attribute{attrFromYAML(value)}
		return nil
	case yaml.SequenceNode:
		out := make(Attribute, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("attr: line %d: expected a scalar", item.Line)
			}
			out = append(out, attrFromYAML(item))
		}
		*a = out
		return nil
	default:
		return fmt.Errorf("attr: line %d: expected a scalar or a list", value.Line)
	}
}

func attrFromYAML(n *yaml.Node) AttrValue {
	switch n.Tag {
	case "!!null":
		return AttrValue{}
	case "!!int":
		if v, err := strconv.ParseUint(strings.ReplaceAll(n.Value, "_", ""), 0, 64); err == nil {
			return Number(v)
		}
	}
	return Text(n.Value)
}
