package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap stores a JSON object in a jsonb column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", value)
	}
	return json.Unmarshal(raw, m)
}

func (JSONMap) GormDataType() string { return "jsonb" }
