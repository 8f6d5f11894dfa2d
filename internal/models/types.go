package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// IDList stores identifier sets as postgres text arrays.
type IDList []string

// Value encodes the list as a postgres array literal.
func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return pq.StringArray{}.Value()
	}
	return pq.StringArray(l).Value()
}

// Scan decodes a postgres text array.
func (l *IDList) Scan(value interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(value); err != nil {
		return fmt.Errorf("scan id list: %w", err)
	}
	*l = IDList(arr)
	return nil
}

// Contains reports whether id is part of the list.
func (l IDList) Contains(id string) bool {
	for _, item := range l {
		if item == id {
			return true
		}
	}
	return false
}

func scanJSON(value interface{}, dest interface{}, name string) (bool, error) {
	if value == nil {
		return false, nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return false, fmt.Errorf("unsupported type %T for %s", value, name)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return true, nil
}
