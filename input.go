// input.go
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"

	"github.com/buffos/go-bitfield/bitfield"
)

// fieldDocument is the object form of a field file: {"fields": [...]}.
type fieldDocument struct {
	Fields []bitfield.Field `json:"fields" yaml:"fields"`
}

var errNoFields = errors.New("no fields found")

// inputFormat returns the decoder name for a file path, from its extension.
func inputFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json5":
		return "json5"
	default:
		return "json"
	}
}

// loadFields reads and validates a field list.
func loadFields(path string) ([]bitfield.Field, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fields file '%s': %w", path, err)
	}
	fields, err := parseFields(data, inputFormat(path))
	if err != nil {
		return nil, fmt.Errorf("parsing fields file '%s': %w", path, err)
	}
	return fields, nil
}

// parseFields decodes a field list given either as a bare array or as an
// object with a "fields" key.
func parseFields(data []byte, format string) ([]bitfield.Field, error) {
	var (
		fields []bitfield.Field
		err    error
	)
	switch format {
	case "yaml":
		fields, err = parseFieldsYAML(data)
	case "json5":
		data, err = normalizeJSON5(data)
		if err == nil {
			fields, err = parseFieldsJSON(data)
		}
	default:
		fields, err = parseFieldsJSON(data)
	}
	if err != nil {
		return nil, err
	}
	if err := validateFields(fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func parseFieldsJSON(data []byte) ([]bitfield.Field, error) {
	var fields []bitfield.Field
	err := json.Unmarshal(data, &fields)
	if err == nil {
		return fields, nil
	}
	var doc fieldDocument
	if errDoc := json.Unmarshal(data, &doc); errDoc != nil {
		// the array form is the documented one, report its error
		return nil, fmt.Errorf("%w (also failed object parse: %v)", err, errDoc)
	}
	return doc.Fields, nil
}

func parseFieldsYAML(data []byte) ([]bitfield.Field, error) {
	var fields []bitfield.Field
	err := yaml.Unmarshal(data, &fields)
	if err == nil {
		return fields, nil
	}
	var doc fieldDocument
	if errDoc := yaml.Unmarshal(data, &doc); errDoc != nil {
		return nil, fmt.Errorf("%w (also failed object parse: %v)", err, errDoc)
	}
	return doc.Fields, nil
}

// normalizeJSON5 rewrites JSON5 input as plain JSON so the regular decoders
// and their custom unmarshalers apply. Number literals are carried through
// as written, so 64-bit register values keep every digit.
func normalizeJSON5(data []byte) ([]byte, error) {
	dec := json5.NewDecoder(bytes.NewReader(json5Compat(data)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("json5: %w", err)
	}
	out, err := json.Marshal(jsonNumbers(v))
	if err != nil {
		return nil, fmt.Errorf("json5: %w", err)
	}
	return out, nil
}

// jsonNumbers swaps json5 number literals for their JSON equivalents, which
// marshal verbatim.
func jsonNumbers(v any) any {
	switch v := v.(type) {
	case json5.Number:
		return json.Number(v)
	case []any:
		for i := range v {
			v[i] = jsonNumbers(v[i])
		}
	case map[string]any:
		for k := range v {
			v[k] = jsonNumbers(v[k])
		}
	}
	return v
}

// json5Compat rewrites the JSON5 syntax the decoder does not read: single
// quoted strings become double quoted, comments are dropped and hexadecimal
// numbers (0x1F) are written in decimal.
func json5Compat(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case c == '"':
			j := i + 1
			for j < len(data) && data[j] != '"' {
				if data[j] == '\\' {
					j++
				}
				j++
			}
			j = min(j+1, len(data))
			out = append(out, data[i:j]...)
			i = j
		case c == '\'':
			out = append(out, '"')
			i++
			for i < len(data) && data[i] != '\'' {
				switch {
				case data[i] == '\\' && i+1 < len(data) && data[i+1] == '\'':
					out = append(out, '\'')
					i += 2
				case data[i] == '\\' && i+1 < len(data):
					out = append(out, data[i:i+2]...)
					i += 2
				case data[i] == '"':
					out = append(out, '\\', '"')
					i++
				default:
					out = append(out, data[i])
					i++
				}
			}
			out = append(out, '"')
			i++
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			j := bytes.IndexByte(data[i:], '\n')
			if j < 0 {
				return out
			}
			i += j
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			j := bytes.Index(data[i+2:], []byte("*/"))
			if j < 0 {
				return out
			}
			out = append(out, ' ')
			i += j + 4
		case c == '0' && i+2 < len(data) && (data[i+1] == 'x' || data[i+1] == 'X') && (i == 0 || !isIdentByte(data[i-1])):
			j := i + 2
			for j < len(data) && isHexByte(data[j]) {
				j++
			}
			if n, ok := new(big.Int).SetString(string(data[i+2:j]), 16); ok {
				out = n.Append(out, 10)
			} else {
				out = append(out, data[i:j]...)
			}
			i = j
		default:
			out = append(out, c)
			i++
		}
	}
	return out
}

func isHexByte(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func isIdentByte(c byte) bool {
	return isHexByte(c) || 'g' <= c && c <= 'z' || 'G' <= c && c <= 'Z' || c == '_' || c == '$' || c == '.'
}

// validateFields rejects input the renderer cannot lay out.
func validateFields(fields []bitfield.Field) error {
	if len(fields) == 0 {
		return errNoFields
	}
	for i, f := range fields {
		if f.Width <= 0 {
			return fmt.Errorf("field %d (%q): bits must be > 0, got %d", i, f.Name, f.Width)
		}
	}
	return nil
}

// loadConfig reads a YAML, JSON or JSON5 config file on top of the defaults.
// An empty path yields the defaults.
func loadConfig(path string) (bitfield.Config, error) {
	cfg := bitfield.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file '%s': %w", path, err)
	}
	switch inputFormat(path) {
	case "yaml":
		err = yaml.Unmarshal(data, &cfg)
	case "json5":
		if data, err = normalizeJSON5(data); err == nil {
			err = json.Unmarshal(data, &cfg)
		}
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parsing config file '%s': %w", path, err)
	}
	return cfg, nil
}
