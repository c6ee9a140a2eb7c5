package statetree

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strconv"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/bmartel/jotai-state-tree/jsonptr"
)

// Diff computes the patches that transform the snapshot old into new.
// Patches apply sequentially: indices in later patches account for the
// splices made by earlier ones. OldValue is populated throughout, so the
// result is reversible entry by entry.
func Diff(old, new any) []Patch {
	var out []Patch
	diffAt("", old, new, &out)
	return out
}

func diffAt(path string, old, new any, out *[]Patch) {
	if om, ok := old.(map[string]any); ok {
		if nm, ok := new.(map[string]any); ok {
			diffMap(path, om, nm, out)
			return
		}
	}
	if os, ok := old.([]any); ok {
		if ns, ok := new.([]any); ok {
			diffSeq(path, os, ns, out)
			return
		}
	}
	if !equalValues(old, new) {
		*out = append(*out, Patch{Op: OpReplace, Path: path, Value: new, OldValue: old})
	}
}

func diffMap(path string, old, new map[string]any, out *[]Patch) {
	keys := make([]string, 0, len(old)+len(new))
	for k := range old {
		keys = append(keys, k)
	}
	for k := range new {
		if _, ok := old[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		at := jsonptr.Append(path, k)
		ov, inOld := old[k]
		nv, inNew := new[k]
		switch {
		case !inNew:
			*out = append(*out, Patch{Op: OpRemove, Path: at, OldValue: ov})
		case !inOld:
			*out = append(*out, Patch{Op: OpAdd, Path: at, Value: nv})
		default:
			diffAt(at, ov, nv, out)
		}
	}
}

// diffSeq diffs two sequences by mapping each element's canonical
// encoding to a rune and running a rune-level diff, then walking the
// diff runs. A delete run followed by an insert run pairs elements
// positionally into replaces, which recurse.
func diffSeq(path string, old, new []any, out *[]Patch) {
	enc := map[string]rune{}
	oldRunes := mapToRunes(enc, old)
	newRunes := mapToRunes(enc, new)
	diffs := diffpatch.New().DiffMainRunes(oldRunes, newRunes, false)

	idx := 0 // position in the evolving sequence
	oi, ni := 0, 0
	for d := 0; d < len(diffs); d++ {
		runs := []rune(diffs[d].Text)
		switch diffs[d].Type {
		case diffpatch.DiffEqual:
			idx += len(runs)
			oi += len(runs)
			ni += len(runs)
		case diffpatch.DiffInsert:
			for range runs {
				*out = append(*out, Patch{
					Op:    OpAdd,
					Path:  jsonptr.Append(path, strconv.Itoa(idx)),
					Value: new[ni],
				})
				ni++
				idx++
			}
		case diffpatch.DiffDelete:
			del := len(runs)
			ins := 0
			if d+1 < len(diffs) && diffs[d+1].Type == diffpatch.DiffInsert {
				ins = len([]rune(diffs[d+1].Text))
			}
			pair := min(del, ins)
			for p := 0; p < pair; p++ {
				diffAt(jsonptr.Append(path, strconv.Itoa(idx)), old[oi], new[ni], out)
				oi++
				ni++
				idx++
			}
			for p := pair; p < del; p++ {
				*out = append(*out, Patch{
					Op:       OpRemove,
					Path:     jsonptr.Append(path, strconv.Itoa(idx)),
					OldValue: old[oi],
				})
				oi++
			}
			for p := pair; p < ins; p++ {
				*out = append(*out, Patch{
					Op:    OpAdd,
					Path:  jsonptr.Append(path, strconv.Itoa(idx)),
					Value: new[ni],
				})
				ni++
				idx++
			}
			if ins > 0 {
				d++ // insert run consumed
			}
		}
	}
}

func mapToRunes(enc map[string]rune, vals []any) []rune {
	rs := make([]rune, len(vals))
	for i, v := range vals {
		key := canonical(v)
		r, ok := enc[key]
		if !ok {
			r = rune(len(enc))
			enc[key] = r
		}
		rs[i] = r
	}
	return rs
}

// canonical returns a stable encoding of a plain value for element
// identity during sequence diffing.
func canonical(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func equalValues(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
