package bitfield

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TypeTag selects the fill color of a field. Tags "2" through "7" are
// recognized; anything else present in the input is TypeUnknown.
type TypeTag uint8

const (
	TypeNone TypeTag = iota
	TypeUnknown
	Type2
	Type3
	Type4
	Type5
	Type6
	Type7
)

// ParseTypeTag maps the textual tag to its enum value.
func ParseTypeTag(s string) TypeTag {
	switch strings.TrimSpace(s) {
	case "":
		return TypeNone
	case "2":
		return Type2
	case "3":
		return Type3
	case "4":
		return Type4
	case "5":
		return Type5
	case "6":
		return Type6
	case "7":
		return Type7
	default:
		return TypeUnknown
	}
}

func (t TypeTag) String() string {
	switch t {
	case TypeNone:
		return ""
	case TypeUnknown:
		return "unknown"
	default:
		return fmt.Sprint(int(t-Type2) + 2)
	}
}

// UnmarshalJSON accepts a number or a string.
func (t *TypeTag) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*t = TypeNone
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("type tag: %w", err)
		}
	}
	*t = ParseTypeTag(s)
	return nil
}

// UnmarshalYAML accepts any scalar.
func (t *TypeTag) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("type tag: line %d: expected a scalar", value.Line)
	}
	if value.Tag == "!!null" {
		*t = TypeNone
		return nil
	}
	*t = ParseTypeTag(value.Value)
	return nil
}
