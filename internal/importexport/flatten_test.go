package importexport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnflattenContent(t *testing.T) {
	row := Row{
		"id":                     "abc",
		"content_s.limit":        "2",
		"content_s.unit":         "h",
		"content_s.nested.inner": "x",
	}

	content := UnflattenContent(row)
	assert.Equal(t, map[string]any{
		"limit":  "2",
		"unit":   "h",
		"nested": map[string]any{"inner": "x"},
	}, content)
}

func TestUnflattenContentEmptyCellIsUnset(t *testing.T) {
	row := Row{"content_s.limit": "2", "content_s.unit": ""}
	content := UnflattenContent(row)
	assert.Equal(t, map[string]any{"limit": "2"}, content)
	assert.NotContains(t, content, "unit")
}

func TestUnflattenContentNoColumns(t *testing.T) {
	assert.Nil(t, UnflattenContent(Row{"id": "abc", "source_name": "x"}))
}

func TestFlattenContent(t *testing.T) {
	row := Row{"id": "abc"}
	FlattenContent(row, map[string]any{
		"limit":  2,
		"nested": map[string]any{"inner": "x"},
	})
	assert.Equal(t, 2, row["content_s.limit"])
	assert.Equal(t, "x", row["content_s.nested.inner"])
}

func TestFlattenUnflattenRoundTrip(t *testing.T) {
	content := map[string]any{
		"limit": "2",
		"meta":  map[string]any{"a": "1", "b": "2"},
	}
	row := Row{}
	FlattenContent(row, content)
	assert.Equal(t, content, UnflattenContent(row))
}

func TestContentColumnsOrdering(t *testing.T) {
	doc := map[string]any{
		"properties": map[string]any{
			"weekday": map[string]any{"type": "string", "propertyOrder": float64(3)},
			"limit":   map[string]any{"type": "integer", "propertyOrder": float64(1)},
			"unit":    map[string]any{"type": "string", "propertyOrder": float64(2)},
			"zzz":     map[string]any{"type": "string"},
			"aaa":     map[string]any{"type": "string"},
		},
	}
	assert.Equal(t, []string{
		"content_s.limit", "content_s.unit", "content_s.weekday",
		"content_s.aaa", "content_s.zzz",
	}, ContentColumns(doc))
}

func TestContentColumnsNoProperties(t *testing.T) {
	assert.Nil(t, ContentColumns(map[string]any{"type": "object"}))
}
