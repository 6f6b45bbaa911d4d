package util

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// WriteJSONAtomic writes v as indented JSON to path.
func WriteJSONAtomic(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return WriteFileAtomic(path, buf.Bytes())
}

// WriteJSONLinesAtomic writes one compact JSON document per row.
func WriteJSONLinesAtomic[T any](path string, rows []T) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode row %d of %s: %w", i, path, err)
		}
	}
	return WriteFileAtomic(path, buf.Bytes())
}
