package importexport

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for hint, want := range map[string]Format{
		"csv": FormatCSV, ".csv": FormatCSV, "CSV": FormatCSV,
		"xlsx": FormatXLSX, "json": FormatJSON,
		"yaml": FormatYAML, "yml": FormatYAML, ".yml": FormatYAML,
	} {
		got, err := ParseFormat(hint)
		require.NoError(t, err, hint)
		assert.Equal(t, want, got, hint)
	}

	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestDecodeCSV(t *testing.T) {
	input := "id,device_type__code,content_s.limit,content_s.unit,missing_content\n" +
		",C32b,2,h,\n"
	ds, err := Decode(FormatCSV, strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "device_type__code", "content_s.limit", "content_s.unit", "missing_content"}, ds.Columns)
	require.Len(t, ds.Rows, 1)

	row := ds.Rows[0]
	assert.False(t, row.Has("id"), "empty cell is unset, not empty string")
	assert.False(t, row.Has("missing_content"))
	assert.Equal(t, "C32b", row.String("device_type__code"))
	assert.Equal(t, "2", row.String("content_s.limit"))
	assert.Equal(t, "h", row.String("content_s.unit"))
}

func TestDecodeCSVWithBOM(t *testing.T) {
	input := "\uFEFFcode,description\nA11,Road work\n"
	ds, err := Decode(FormatCSV, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "code", ds.Columns[0], "BOM must not leak into the first header")
}

func TestDecodeJSONKeepsEmptyStrings(t *testing.T) {
	input := `[{"source_name": "", "direction": 45}]`
	ds, err := Decode(FormatJSON, strings.NewReader(input))
	require.NoError(t, err)

	row := ds.Rows[0]
	assert.True(t, row.Has("source_name"), `explicit "" survives in document formats`)
	assert.Equal(t, "", row.String("source_name"))
	assert.Equal(t, "45", row.String("direction"))
}

func TestDecodeYAML(t *testing.T) {
	input := "- code: A11\n  description: Road work\n- code: C32\n"
	ds, err := Decode(FormatYAML, strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, "A11", ds.Rows[0].String("code"))
	assert.False(t, ds.Rows[1].Has("description"))
}

func TestCSVRoundTrip(t *testing.T) {
	ds := Dataset{
		Columns: []string{"id", "source_name", "content_s.limit"},
		Rows: []Row{
			{"id": "1", "source_name": "reg", "content_s.limit": "2"},
			{"id": "2"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(FormatCSV, &buf, ds))

	decoded, err := Decode(FormatCSV, &buf)
	require.NoError(t, err)
	assert.Equal(t, ds.Columns, decoded.Columns)
	require.Len(t, decoded.Rows, 2)
	assert.Equal(t, "reg", decoded.Rows[0].String("source_name"))
	assert.False(t, decoded.Rows[1].Has("source_name"))
}

func TestXLSXRoundTrip(t *testing.T) {
	ds := Dataset{
		Columns: []string{"code", "description"},
		Rows: []Row{
			{"code": "A11", "description": "Road work"},
			{"code": "C32"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(FormatXLSX, &buf, ds))

	decoded, err := Decode(FormatXLSX, &buf)
	require.NoError(t, err)
	assert.Equal(t, ds.Columns, decoded.Columns)
	require.Len(t, decoded.Rows, 2)
	assert.Equal(t, "Road work", decoded.Rows[0].String("description"))
	assert.False(t, decoded.Rows[1].Has("description"))
}

func TestJSONRoundTrip(t *testing.T) {
	ds := Dataset{
		Columns: []string{"code", "content_schema"},
		Rows: []Row{
			{"code": "H17.1", "content_schema": map[string]any{"type": "object"}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(FormatJSON, &buf, ds))

	decoded, err := Decode(FormatJSON, &buf)
	require.NoError(t, err)
	require.Len(t, decoded.Rows, 1)
	assert.Equal(t, map[string]any{"type": "object"}, decoded.Rows[0]["content_schema"])
}
