package bitfield

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFieldJSON(t *testing.T) {
	var fields []Field
	err := json.Unmarshal([]byte(`[
		{"name": "OP", "bits": 4, "type": 2, "attr": [5, "RW", null, -1]},
		{"bits": 2, "type": "9", "attr": "ro", "rotate": -90, "overline": true},
		{"bits": 1, "type": null, "attr": 3}
	]`), &fields)
	require.NoError(t, err)
	require.Len(t, fields, 3)

	assert.Equal(t, Field{
		Name:      "OP",
		Width:     4,
		Type:      Type2,
		Attribute: Attribute{Number(5), Text("RW"), {}, Text("-1")},
	}, fields[0])
	assert.Equal(t, TypeUnknown, fields[1].Type)
	assert.Equal(t, Attribute{Text("ro")}, fields[1].Attribute)
	assert.Equal(t, -90.0, fields[1].Rotation)
	assert.True(t, fields[1].Overline)
	assert.Equal(t, TypeNone, fields[2].Type)
	assert.Equal(t, Attribute{Number(3)}, fields[2].Attribute)
}

func TestFieldYAML(t *testing.T) {
	var fields []Field
	err := yaml.Unmarshal([]byte(`
- name: OP
  bits: 4
  type: "7"
  attr: [0x5, RW, ~]
- bits: 2
  type: 3
  attr: 10
`), &fields)
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, Type7, fields[0].Type)
	assert.Equal(t, Attribute{Number(5), Text("RW"), {}}, fields[0].Attribute)
	assert.Equal(t, Type3, fields[1].Type)
	assert.Equal(t, Attribute{Number(10)}, fields[1].Attribute)
}

func TestLegendKeepsOrder(t *testing.T) {
	want := Legend{{Label: "write", Type: Type3}, {Label: "read", Type: Type2}, {Label: "misc", Type: TypeUnknown}}

	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(`{"legend": {"write": 3, "read": "2", "misc": 12}}`), &cfg))
	assert.Equal(t, want, cfg.Legend)

	cfg = Config{}
	require.NoError(t, yaml.Unmarshal([]byte("legend:\n  write: 3\n  read: \"2\"\n  misc: 12\n"), &cfg))
	assert.Equal(t, want, cfg.Legend)

	assert.Error(t, json.Unmarshal([]byte(`{"legend": [1, 2]}`), &cfg))
}

func TestConfigDecodeKeepsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte("lanes: 4\ncompact: true\ntrim: 8.5\n"), &cfg))
	assert.Equal(t, 4, cfg.Lanes)
	assert.True(t, cfg.Compact)
	assert.Equal(t, 8.5, cfg.TrimCharWidth)
	assert.Equal(t, 80.0, cfg.RowHeight)
	assert.Equal(t, "sans-serif", cfg.FontFamily)
	assert.Nil(t, cfg.Bits)
}

func TestConfigDecodeExplicitZeroBits(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, json.Unmarshal([]byte(`{"bits": 0}`), &cfg))
	require.NotNil(t, cfg.Bits)
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte("bits: 0\n"), &cfg))
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte("bits: 16\n"), &cfg))
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 16, *cfg.Bits)
}

func TestTypeTagColors(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"2", "rgb(255, 204, 204)"},
		{"3", "rgb(238, 255, 204)"},
		{"5", "rgb(255, 242, 204)"},
		{"6", "rgb(204, 255, 209)"},
		{"7", "rgb(204, 225, 255)"},
		{"9", "rgb(229, 229, 229)"},
		{"", "rgb(229, 229, 229)"},
	}
	for _, tt := range tests {
		t.Run("type"+tt.tag, func(t *testing.T) {
			tag := ParseTypeTag(tt.tag)
			assert.Equal(t, tt.want, tag.Color().String())
			assert.Equal(t, tag.Color(), ParseTypeTag(tt.tag).Color())
		})
	}
	c := Type4.Color()
	assert.NotEqual(t, NeutralGray, c)
	assert.Equal(t, uint8(204), c.R)
	assert.Equal(t, uint8(255), c.G)
}
