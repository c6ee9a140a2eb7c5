// Package encode serializes snapshots and patches. Snapshots are plain
// values, so JSON and YAML encodings are direct; the patch JSON shape is
// the only format requiring bit-exact compatibility, since it is
// replayable history.
package encode

import (
	"encoding/json"

	"github.com/goccy/go-yaml"
)

// JSON encodes a snapshot or any plain value as compact JSON.
func JSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// JSONIndent encodes a snapshot as indented JSON, for diagnostics.
func JSONIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// ParseJSON decodes JSON into a plain value suitable for ApplySnapshot.
func ParseJSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// YAML encodes a snapshot as YAML.
func YAML(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

// ParseYAML decodes YAML into a plain value suitable for ApplySnapshot.
func ParseYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
