package models

import (
	"encoding/json"
	"fmt"
)

// scanJSON decodes a JSON column. SQLite hands back strings, PostgreSQL bytes.
func scanJSON(value any, dest any) error {
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("failed to unmarshal JSON value of type %T", value)
	}
}
