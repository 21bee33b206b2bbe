package schema

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Coerce converts string cell values that arrived through a tabular import
// into the JSON types the schema expects. Coercion is one-directional: the
// stored form is always the JSON value, never its string encoding. Values
// that cannot be coerced are returned unchanged so that validation reports
// them against the schema.
func Coerce(doc map[string]any, value any) any {
	obj, ok := value.(map[string]any)
	if !ok {
		return value
	}
	props, ok := doc["properties"].(map[string]any)
	if !ok {
		return value
	}

	out := make(map[string]any, len(obj))
	for key, v := range obj {
		if propSchema, ok := props[key].(map[string]any); ok {
			out[key] = coerceValue(propSchema, v)
		} else {
			out[key] = v
		}
	}
	return out
}

func coerceValue(propSchema map[string]any, value any) any {
	s, isString := value.(string)
	if !isString {
		if nested, ok := value.(map[string]any); ok {
			return Coerce(propSchema, nested)
		}
		return value
	}

	types := schemaTypes(propSchema)

	// A numeric string prefers integer over string when the schema allows both.
	if types["boolean"] {
		switch s {
		case "true", "True", "1":
			return true
		case "false", "False", "0":
			return false
		}
	}
	if types["integer"] {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	if types["number"] {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if types["object"] {
		trimmed := strings.TrimSpace(s)
		if strings.HasPrefix(trimmed, "{") {
			var obj map[string]any
			if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
				return Coerce(propSchema, obj)
			}
		}
	}
	if types["array"] {
		trimmed := strings.TrimSpace(s)
		if strings.HasPrefix(trimmed, "[") {
			var arr []any
			if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
				return arr
			}
		}
	}
	return s
}

func schemaTypes(propSchema map[string]any) map[string]bool {
	out := map[string]bool{}
	switch t := propSchema["type"].(type) {
	case string:
		out[t] = true
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				out[s] = true
			}
		}
	}
	return out
}
