// Package valueobject holds small value types shared by entities and stores.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"maps"
)

// ErrScanValueNotBytes indicates the database value is not JSON bytes.
var ErrScanValueNotBytes = errors.New("valueobject: jsonmap scan value is not []byte")

// JSONMap stores arbitrary JSON object data, e.g. a jsonb column.
type JSONMap map[string]any

// Value implements driver.Valuer. A nil map is stored as {}.
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}

	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSONMap) Scan(value any) error {
	var raw []byte

	switch v := value.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case map[string]any:
		*j = JSONMap(v)
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case json.RawMessage:
		raw = v
	default:
		return ErrScanValueNotBytes
	}

	result := JSONMap{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*j = result

	return nil
}

// Clone returns a shallow copy.
func (j JSONMap) Clone() JSONMap {
	out := make(JSONMap, len(j))
	maps.Copy(out, j)

	return out
}

// Merge returns a copy of j with every key of patch applied on top.
func (j JSONMap) Merge(patch map[string]any) JSONMap {
	out := j.Clone()
	maps.Copy(out, patch)

	return out
}

// GetString returns "" when the key is missing or not a string.
func (j JSONMap) GetString(key string) string {
	v, _ := j[key].(string)
	return v
}

// GetBool returns def when the key is missing or not a bool.
func (j JSONMap) GetBool(key string, def bool) bool {
	if v, ok := j[key].(bool); ok {
		return v
	}

	return def
}
