package schema

import (
	"fmt"
	"sort"

	"golang.org/x/text/language"
)

// Row is one displayable content field: a localised title and the rendered
// value. The ordering produced by ContentRows is the single source of truth
// for how content is displayed and exported.
type Row struct {
	Title string
	Value string
}

// companions of the unit property, checked in this order.
var unitCompanions = []string{"limit", "distance"}

// ContentRows returns ordered (title, value) pairs for a content value.
// Properties are ordered by their integer propertyOrder; properties without
// one sort after, by name. Titles come from propertiesTitles.<lang>, matched
// against the requested language, with the property name as fallback. A unit
// property is merged into its companion (limit or distance) and suppressed.
func ContentRows(doc map[string]any, content map[string]any, lang string) []Row {
	if len(content) == 0 {
		return nil
	}

	props, _ := doc["properties"].(map[string]any)
	titles := titlesForLanguage(doc, lang)

	names := make([]string, 0, len(content))
	for name := range content {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, iOK := propertyOrder(props, names[i])
		oj, jOK := propertyOrder(props, names[j])
		switch {
		case iOK && jOK && oi != oj:
			return oi < oj
		case iOK != jOK:
			return iOK
		default:
			return names[i] < names[j]
		}
	})

	unitValue, hasUnit := content["unit"]
	mergeTo := ""
	if hasUnit && unitValue != nil {
		for _, companion := range unitCompanions {
			if v, ok := content[companion]; ok && v != nil {
				mergeTo = companion
				break
			}
		}
	}

	rows := make([]Row, 0, len(names))
	for _, name := range names {
		if name == "unit" && mergeTo != "" {
			continue
		}
		value := formatValue(content[name])
		if name == mergeTo {
			value = fmt.Sprintf("%s %s", value, formatValue(unitValue))
		}
		title := name
		if t, ok := titles[name]; ok {
			title = t
		}
		rows = append(rows, Row{Title: title, Value: value})
	}
	return rows
}

func propertyOrder(props map[string]any, name string) (float64, bool) {
	prop, ok := props[name].(map[string]any)
	if !ok {
		return 0, false
	}
	switch v := prop["propertyOrder"].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// titlesForLanguage picks the best propertiesTitles entry for the requested
// language using BCP 47 matching.
func titlesForLanguage(doc map[string]any, lang string) map[string]string {
	all, ok := doc["propertiesTitles"].(map[string]any)
	if !ok || len(all) == 0 {
		return nil
	}

	available := make([]string, 0, len(all))
	for code := range all {
		available = append(available, code)
	}
	sort.Strings(available)

	tags := make([]language.Tag, 0, len(available))
	for _, code := range available {
		tag, err := language.Parse(code)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
	}

	chosen := available[0]
	if len(tags) > 0 {
		matcher := language.NewMatcher(tags)
		if requested, err := language.Parse(lang); err == nil {
			_, index, _ := matcher.Match(requested)
			chosen = available[index]
		}
	}

	raw, ok := all[chosen].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for name, title := range raw {
		if s, ok := title.(string); ok {
			out[name] = s
		}
	}
	return out
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", t)
	}
}
