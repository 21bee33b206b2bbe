package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceBoolean(t *testing.T) {
	doc := map[string]any{
		"properties": map[string]any{"flag": map[string]any{"type": "boolean"}},
	}

	for input, want := range map[string]bool{
		"true": true, "True": true, "1": true,
		"false": false, "False": false, "0": false,
	} {
		out := Coerce(doc, map[string]any{"flag": input}).(map[string]any)
		assert.Equal(t, want, out["flag"], "input %q", input)
	}

	out := Coerce(doc, map[string]any{"flag": "yes"}).(map[string]any)
	assert.Equal(t, "yes", out["flag"], "uncoercible values pass through for validation")
}

func TestCoerceInteger(t *testing.T) {
	doc := map[string]any{
		"properties": map[string]any{"limit": map[string]any{"type": "integer"}},
	}

	out := Coerce(doc, map[string]any{"limit": "42"}).(map[string]any)
	assert.Equal(t, int64(42), out["limit"])

	out = Coerce(doc, map[string]any{"limit": "4.2"}).(map[string]any)
	assert.Equal(t, "4.2", out["limit"], "decimal strings are not integers")
}

func TestCoerceNumber(t *testing.T) {
	doc := map[string]any{
		"properties": map[string]any{"weight": map[string]any{"type": "number"}},
	}
	out := Coerce(doc, map[string]any{"weight": "4.2"}).(map[string]any)
	assert.Equal(t, 4.2, out["weight"])
}

// A numeric string prefers integer when the schema allows both integer and
// string.
func TestCoercePrefersInteger(t *testing.T) {
	doc := map[string]any{
		"properties": map[string]any{
			"value": map[string]any{"type": []any{"integer", "string"}},
		},
	}
	out := Coerce(doc, map[string]any{"value": "7"}).(map[string]any)
	assert.Equal(t, int64(7), out["value"])

	out = Coerce(doc, map[string]any{"value": "7h"}).(map[string]any)
	assert.Equal(t, "7h", out["value"])
}

func TestCoerceObjectAndArray(t *testing.T) {
	doc := map[string]any{
		"properties": map[string]any{
			"meta": map[string]any{"type": "object"},
			"days": map[string]any{"type": "array"},
		},
	}

	out := Coerce(doc, map[string]any{
		"meta": `{"k": "v"}`,
		"days": `[1, 2]`,
	}).(map[string]any)
	assert.Equal(t, map[string]any{"k": "v"}, out["meta"])
	assert.Equal(t, []any{float64(1), float64(2)}, out["days"])
}

func TestCoerceLeavesUnknownProperties(t *testing.T) {
	doc := map[string]any{
		"properties": map[string]any{"limit": map[string]any{"type": "integer"}},
	}
	out := Coerce(doc, map[string]any{"limit": "5", "other": "1"}).(map[string]any)
	assert.Equal(t, int64(5), out["limit"])
	assert.Equal(t, "1", out["other"], "properties outside the schema stay as given")
}

func TestCoerceNonObjectValue(t *testing.T) {
	doc := map[string]any{"properties": map[string]any{}}
	assert.Equal(t, "scalar", Coerce(doc, "scalar"))
}
