package mcpserver

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"blocks/internal/domain"
)

// marshalIndent serializes a value as indented JSON.
func marshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func argString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

// argInt64 reads an integer argument sent as a JSON number or a string.
// ok is false when the key is absent.
func argInt64(args map[string]any, key string) (v int64, ok bool, err error) {
	raw, present := args[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	switch t := raw.(type) {
	case float64:
		return int64(t), true, nil
	case int:
		return int64(t), true, nil
	case int64:
		return t, true, nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false, fmt.Errorf("%s must be an integer", key)
		}
		return n, true, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, false, nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%s must be an integer", key)
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("%s must be an integer", key)
	}
}

// argIntPtr is argInt64 for optional int arguments.
func argIntPtr(args map[string]any, key string) (*int, error) {
	n, ok, err := argInt64(args, key)
	if err != nil || !ok {
		return nil, err
	}
	v := int(n)
	return &v, nil
}

func argInt64Ptr(args map[string]any, key string) (*int64, error) {
	n, ok, err := argInt64(args, key)
	if err != nil || !ok {
		return nil, err
	}
	return &n, nil
}

// argBoolPtr reads an optional boolean sent as a JSON bool, or as a string
// read the same way as the HTTP query parameter.
func argBoolPtr(args map[string]any, key string) *bool {
	switch t := args[key].(type) {
	case bool:
		return &t
	case string:
		b := domain.ParseLooseBool(t)
		return &b
	case float64:
		b := t != 0
		return &b
	}
	return nil
}

func argStringPtr(args map[string]any, key string) *string {
	v, ok := args[key].(string)
	if !ok {
		return nil
	}
	return &v
}

// argJSON returns an argument as raw JSON. Strings are taken to hold JSON
// text; any other value is re-encoded.
func argJSON(args map[string]any, key string) (json.RawMessage, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok {
		if !json.Valid([]byte(s)) {
			return nil, fmt.Errorf("%s must be valid JSON", key)
		}
		return json.RawMessage(s), nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return data, nil
}
