package domain

import (
	"encoding/json"
	"strings"
)

// ParseLooseBool reads a boolean-like request value the way a JSON decoder
// followed by a truthiness check would: "true", "1", "yes" as a quoted
// string, non-empty arrays and objects are true; "false", "0", "null", ""
// and anything that is not JSON are false.
func ParseLooseBool(raw string) bool {
	var v any
	if err := json.Unmarshal([]byte(strings.ToLower(raw)), &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != "" && t != "0"
	case []any:
		return len(t) > 0
	case map[string]any:
		return true
	default:
		return false
	}
}
