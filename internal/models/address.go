package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Value marshals the address to JSON for storage in a jsonb column.
func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan unmarshals an address from a jsonb column.
func (a *Address) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	case nil:
		*a = Address{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into Address", src)
}
