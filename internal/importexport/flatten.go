package importexport

import (
	"sort"
	"strings"
)

const contentPrefix = "content_s."

// UnflattenContent collects the dotted content_s.* columns of a row into a
// nested content value. An empty-string cell means unset and yields no key.
// Returns nil when the row carries no content columns at all, so callers can
// distinguish "no content given" from "empty content".
func UnflattenContent(row Row) map[string]any {
	var content map[string]any
	for column, value := range row {
		path, ok := strings.CutPrefix(column, contentPrefix)
		if !ok || path == "" {
			continue
		}
		if s, isString := value.(string); isString && s == "" {
			continue
		}
		if content == nil {
			content = map[string]any{}
		}
		insertPath(content, strings.Split(path, "."), value)
	}
	return content
}

func insertPath(doc map[string]any, path []string, value any) {
	if len(path) == 1 {
		doc[path[0]] = value
		return
	}
	child, ok := doc[path[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		doc[path[0]] = child
	}
	insertPath(child, path[1:], value)
}

// FlattenContent expands a content value into dotted content_s.* cells on the
// given row.
func FlattenContent(row Row, content map[string]any) {
	flattenInto(row, contentPrefix, content)
}

func flattenInto(row Row, prefix string, doc map[string]any) {
	for key, value := range doc {
		if nested, ok := value.(map[string]any); ok {
			flattenInto(row, prefix+key+".", nested)
			continue
		}
		row[prefix+key] = value
	}
}

// ContentColumns returns the sorted union of dotted content columns present
// in the schema's properties, ordered by propertyOrder with unordered
// properties after, by name. Used to seed export headers.
func ContentColumns(schemaDoc map[string]any) []string {
	props, ok := schemaDoc["properties"].(map[string]any)
	if !ok {
		return nil
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, iOK := orderOf(props, names[i])
		oj, jOK := orderOf(props, names[j])
		switch {
		case iOK && jOK && oi != oj:
			return oi < oj
		case iOK != jOK:
			return iOK
		default:
			return names[i] < names[j]
		}
	})

	columns := make([]string, len(names))
	for i, name := range names {
		columns[i] = contentPrefix + name
	}
	return columns
}

func orderOf(props map[string]any, name string) (float64, bool) {
	prop, ok := props[name].(map[string]any)
	if !ok {
		return 0, false
	}
	if v, ok := prop["propertyOrder"].(float64); ok {
		return v, true
	}
	if v, ok := prop["propertyOrder"].(int); ok {
		return float64(v), true
	}
	return 0, false
}
