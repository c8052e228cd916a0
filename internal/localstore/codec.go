package localstore

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonValue stores any value as a JSON text column.
type jsonValue struct{ v any }

func (j jsonValue) Value() (driver.Value, error) {
	b, err := json.Marshal(j.v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}

// jsonColumn decodes a JSON text column into dst.
type jsonColumn struct{ dst any }

func (j jsonColumn) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	return json.Unmarshal(b, j.dst)
}
