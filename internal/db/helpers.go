package db

import (
	"encoding/json"
	"time"
)

// nowISO returns the canonical timestamp format used across all tables.
func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// marshalJSON serializes v, falling back to the given default on error.
func marshalJSON(v any, fallback string) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fallback
	}
	return string(data)
}

// unmarshalStrings parses a JSON string array. A corrupt column reads as
// empty rather than failing the whole query.
func unmarshalStrings(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []string{}
	}
	if out == nil {
		out = []string{}
	}
	return out
}
