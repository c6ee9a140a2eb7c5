package node

import (
	"fmt"
	"strconv"

	"github.com/bmartel/jotai-state-tree/jsonptr"
)

// ApplyPatch applies patches in order to the tree rooted at root, with
// paths resolved relative to root. Application stops at the first failing
// patch; edits applied before the failure are not rolled back.
func ApplyPatch(root *Node, patches ...Patch) error {
	for idx := range patches {
		if err := applyPatch(root, patches[idx]); err != nil {
			return err
		}
	}
	return nil
}

func applyPatch(root *Node, p Patch) error {
	switch p.Op {
	case OpReplace, OpAdd, OpRemove:
	default:
		return fmt.Errorf("apply patch: unknown op %q", p.Op)
	}
	segs := jsonptr.Split(p.Path)
	if len(segs) == 0 {
		if p.Op != OpReplace {
			return fmt.Errorf("apply %s at root: %w", p.Op, ErrInvalidPath)
		}
		return ApplySnapshot(root, p.Value)
	}
	parent := root
	for _, seg := range segs[:len(segs)-1] {
		c := parent.children[seg]
		if c == nil {
			return fmt.Errorf("apply %s %q: no child %q at %q: %w",
				p.Op, p.Path, seg, parent.path, ErrInvalidPath)
		}
		parent = c
	}
	last := segs[len(segs)-1]
	if p.Op == OpReplace {
		if child := parent.children[last]; child != nil {
			return ApplySnapshot(child, p.Value)
		}
		return replaceRaw(parent, last, p)
	}
	return splice(parent, last, p)
}

// replaceRaw handles replace on a final segment with no corresponding
// child node: the raw value of the containing node is mutated at the
// segment and written back through setValue.
func replaceRaw(parent *Node, key string, p Patch) error {
	at := jsonptr.Append(parent.path, key)
	switch v := parent.Value().(type) {
	case map[string]any:
		old, ok := v[key]
		if !ok {
			return fmt.Errorf("replace %q: no entry %q: %w", p.Path, key, ErrInvalidPath)
		}
		v[key] = p.Value
		fwd := Patch{Op: OpReplace, Path: at, Value: p.Value, OldValue: old}
		inv := fwd.Inverse()
		return parent.setValue(v, &fwd, &inv)
	case []any:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(v) {
			return fmt.Errorf("replace %q: bad index %q: %w", p.Path, key, ErrInvalidPath)
		}
		old := v[idx]
		v[idx] = p.Value
		fwd := Patch{Op: OpReplace, Path: at, Value: p.Value, OldValue: old}
		inv := fwd.Inverse()
		return parent.setValue(v, &fwd, &inv)
	default:
		return fmt.Errorf("replace %q: %q is not a container: %w", p.Path, parent.path, ErrInvalidPath)
	}
}

// splice handles add and remove: sequence values are spliced at the
// numeric index (or appended for the "-" sentinel), mapping values get
// the named entry inserted or deleted, and the result is written back
// through setValue with the concrete edit as the emitted patch.
func splice(parent *Node, key string, p Patch) error {
	switch v := parent.Value().(type) {
	case []any:
		return spliceSeq(parent, v, key, p)
	case map[string]any:
		return spliceMap(parent, v, key, p)
	default:
		return fmt.Errorf("%s %q: %q is not a container: %w", p.Op, p.Path, parent.path, ErrInvalidPath)
	}
}

func spliceSeq(parent *Node, v []any, key string, p Patch) error {
	size := len(v)
	idx := size
	if key != "-" {
		var err error
		idx, err = strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("%s %q: bad index %q: %w", p.Op, p.Path, key, ErrInvalidPath)
		}
	}
	at := jsonptr.Append(parent.path, strconv.Itoa(idx))
	if p.Op == OpAdd {
		if idx < 0 || idx > size {
			return fmt.Errorf("add %q: index %d out of range: %w", p.Path, idx, ErrInvalidPath)
		}
		seq := make([]any, 0, size+1)
		seq = append(seq, v[:idx]...)
		seq = append(seq, p.Value)
		seq = append(seq, v[idx:]...)
		fwd := Patch{Op: OpAdd, Path: at, Value: p.Value}
		inv := fwd.Inverse()
		return parent.setValue(seq, &fwd, &inv)
	}
	if key == "-" || idx < 0 || idx >= size {
		return fmt.Errorf("remove %q: index %q out of range: %w", p.Path, key, ErrInvalidPath)
	}
	seq := make([]any, 0, size-1)
	seq = append(seq, v[:idx]...)
	seq = append(seq, v[idx+1:]...)
	fwd := Patch{Op: OpRemove, Path: at, OldValue: v[idx]}
	inv := fwd.Inverse()
	return parent.setValue(seq, &fwd, &inv)
}

func spliceMap(parent *Node, v map[string]any, key string, p Patch) error {
	at := jsonptr.Append(parent.path, key)
	old, existed := v[key]
	if p.Op == OpAdd {
		v[key] = p.Value
		var fwd Patch
		if existed {
			// add onto an occupied key replaces; the inverse restores
			// the previous entry.
			fwd = Patch{Op: OpReplace, Path: at, Value: p.Value, OldValue: old}
		} else {
			fwd = Patch{Op: OpAdd, Path: at, Value: p.Value}
		}
		inv := fwd.Inverse()
		return parent.setValue(v, &fwd, &inv)
	}
	if !existed {
		return fmt.Errorf("remove %q: no entry %q: %w", p.Path, key, ErrInvalidPath)
	}
	delete(v, key)
	fwd := Patch{Op: OpRemove, Path: at, OldValue: old}
	inv := fwd.Inverse()
	return parent.setValue(v, &fwd, &inv)
}
