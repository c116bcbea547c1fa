package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap stores an open JSON object column (jsonb on Postgres, TEXT on SQLite).
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("json map: %w", err)
	}
	return string(raw), nil
}

func (m *JSONMap) Scan(value interface{}) error {
	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("json map: unsupported scan type %T", value)
	}
	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("json map: %w", err)
		}
	}
	*m = out
	return nil
}

// Clone returns a deep copy made through a JSON round trip.
func (m JSONMap) Clone() JSONMap {
	if m == nil {
		return JSONMap{}
	}
	raw, err := json.Marshal(map[string]any(m))
	if err != nil {
		return JSONMap{}
	}
	out := JSONMap{}
	_ = json.Unmarshal(raw, &out)
	return out
}

// StringList stores an ordered list of strings as a JSON array column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("string list: %w", err)
	}
	return string(raw), nil
}

func (l *StringList) Scan(value interface{}) error {
	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("string list: unsupported scan type %T", value)
	}
	out := []string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("string list: %w", err)
		}
	}
	*l = out
	return nil
}

// Contains reports whether value is present in the list.
func (l StringList) Contains(value string) bool {
	for _, candidate := range l {
		if candidate == value {
			return true
		}
	}
	return false
}

func toBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
