// Package utils contains small helper functions used across the project.
//
// These are usually generic helpers that don't belong to a specific domain.
package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ISOTimestampLayout is the wire format for every timestamp the API emits.
//
// Millisecond precision, always UTC with a trailing "Z", e.g.
//
//	2025-03-01T09:30:00.000Z
const ISOTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ISOTimestamp renders t in ISOTimestampLayout after converting it to UTC.
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format(ISOTimestampLayout)
}

// PrintJSON pretty-prints any Go value as indented JSON to w.
//
// Used by the CLI to print envelopes and smoke-test reports.
// If the value contains unsupported types (channels, funcs, circular refs),
// json.MarshalIndent returns an error and nothing is written.
func PrintJSON(w io.Writer, v interface{}) error {
	// MarshalIndent serializes v into JSON with indentation.
	//   - prefix: "" means no prefix at each line
	//   - indent: two spaces per level
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling JSON: %w", err)
	}

	_, err = fmt.Fprintln(w, string(out))
	return err
}
