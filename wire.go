package statetree

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
)

// wirePatch carries value for add and replace even when it is null,
// as RFC 6902 requires.
type wirePatch struct {
	Op    Op              `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalPatches encodes patches in the wire format: op, path, and value
// only. OldValue is a local reversibility aid and never travels.
func MarshalPatches(patches []Patch) ([]byte, error) {
	wire := make([]wirePatch, len(patches))
	for i, p := range patches {
		wire[i] = wirePatch{Op: p.Op, Path: p.Path}
		if p.Op != OpRemove {
			raw, err := json.Marshal(p.Value)
			if err != nil {
				return nil, fmt.Errorf("marshal patches: %w", err)
			}
			wire[i].Value = raw
		}
	}
	return json.Marshal(wire)
}

// ParsePatches decodes wire-format JSON into patches, validating the
// document as an RFC 6902 patch first.
func ParsePatches(data []byte) ([]Patch, error) {
	if _, err := jsonpatch.DecodePatch(data); err != nil {
		return nil, fmt.Errorf("parse patches: %w", err)
	}
	var ps []Patch
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("parse patches: %w", err)
	}
	for i, p := range ps {
		switch p.Op {
		case OpReplace, OpAdd, OpRemove:
		default:
			return nil, fmt.Errorf("parse patches: unsupported op %q at %d", p.Op, i)
		}
	}
	return ps, nil
}

// ApplyToJSON replays patches against a plain JSON document, bypassing
// any live tree. Replaying a tree's recorded patches against its
// serialized snapshot yields the serialized form of the mutated tree.
func ApplyToJSON(doc []byte, patches []Patch) ([]byte, error) {
	data, err := MarshalPatches(patches)
	if err != nil {
		return nil, fmt.Errorf("apply to json: %w", err)
	}
	ops, err := jsonpatch.DecodePatch(data)
	if err != nil {
		return nil, fmt.Errorf("apply to json: %w", err)
	}
	out, err := ops.Apply(doc)
	if err != nil {
		return nil, fmt.Errorf("apply to json: %w", err)
	}
	return out, nil
}
