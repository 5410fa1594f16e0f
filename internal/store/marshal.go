package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/rtmpl/internal/canon"
)

// marshalNames serializes a field name list to canonical JSON.
// A nil list is stored as "[]".
func marshalNames(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	data, err := canon.MarshalCanonical(names)
	if err != nil {
		return "", fmt.Errorf("marshal names: %w", err)
	}
	return string(data), nil
}

// unmarshalNames parses a stored field name list.
// Always returns a non-nil slice on success.
func unmarshalNames(data string) ([]string, error) {
	names := []string{}
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal names: %w", err)
	}
	return names, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
