package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// stringList is stored as a JSONB array.
type stringList []string

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *stringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = stringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("stringList: unsupported source %T", src)
	}
	return json.Unmarshal(raw, (*[]string)(l))
}

type rowScanner interface {
	Scan(dest ...any) error
}
