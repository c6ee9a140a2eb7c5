package node

import (
	"fmt"
	"reflect"
)

// Snapshot derives a plain serializable value from the subtree rooted at
// n. It never mutates the tree and never triggers listeners. Reference
// nodes serialize as their stored identifier value, never the resolved
// target, so snapshotting terminates even when the live graph contains
// resolved-reference cycles.
func Snapshot(n *Node) any {
	var res any
	switch n.typ.Kind {
	case ScalarKind, ReferenceKind:
		res = n.cell.Get()
	case ListKind:
		vals := make([]any, 0, len(n.children))
		for _, key := range n.ChildKeys() {
			vals = append(vals, Snapshot(n.children[key]))
		}
		res = vals
	default: // RecordKind, DictKind
		m := make(map[string]any, len(n.children))
		for k, c := range n.children {
			m[k] = Snapshot(c)
		}
		res = m
	}
	if n.post != nil {
		res = n.post(res)
	}
	return res
}

// ApplySnapshot ingests an external plain value into the subtree rooted
// at n. Record nodes merge by key: existing children whose key is present
// in the incoming value are applied to recursively, children absent from
// the incoming value are left untouched. Collection and scalar nodes
// delegate to SetValue, which for collections reconciles children through
// the node's sync callback.
func ApplySnapshot(n *Node, v any) error {
	if !n.alive {
		return fmt.Errorf("apply snapshot at %q: %w", n.path, ErrDeadNode)
	}
	if n.typ.Kind == RecordKind {
		if n.pre != nil {
			v = n.pre(v)
		}
		return applyRecord(n, v)
	}
	return n.SetValue(v)
}

func applyRecord(n *Node, v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("apply snapshot at %q: record value must be an object, got %T", n.path, v)
	}
	for _, key := range n.ChildKeys() {
		nv, present := m[key]
		if !present {
			continue
		}
		child := n.children[key]
		if snapshotEqual(Snapshot(child), nv) {
			continue
		}
		if err := ApplySnapshot(child, nv); err != nil {
			return err
		}
	}
	return nil
}

func snapshotEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
