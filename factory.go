package statetree

import (
	"fmt"
	"strconv"

	"github.com/bmartel/jotai-state-tree/node"
)

// NewScalar wraps a plain value in a scalar node.
func NewScalar(v any, opts ...node.Option) *Node {
	return node.New(TypeDesc{Kind: ScalarKind, Name: "scalar"}, v, opts...)
}

// NewRecord builds a record node with one child per field. Record shape
// is fixed at construction: applying snapshots later merges by key into
// the existing children.
func NewRecord(fields map[string]any, opts ...node.Option) *Node {
	n := node.New(TypeDesc{Kind: RecordKind, Name: "record"}, nil, opts...)
	for k, v := range fields {
		attach(n, k, valueToNode(v))
	}
	return n
}

// NewList builds a list node with one indexed child per item and the
// default sequence reconciler.
func NewList(items []any, opts ...node.Option) *Node {
	opts = append([]node.Option{node.WithSync(syncList)}, opts...)
	n := node.New(TypeDesc{Kind: ListKind, Name: "list"}, nil, opts...)
	for i, v := range items {
		attach(n, strconv.Itoa(i), valueToNode(v))
	}
	return n
}

// NewDict builds a dictionary node with one child per entry and the
// default mapping reconciler.
func NewDict(entries map[string]any, opts ...node.Option) *Node {
	opts = append([]node.Option{node.WithSync(syncDict)}, opts...)
	n := node.New(TypeDesc{Kind: DictKind, Name: "dict"}, nil, opts...)
	for k, v := range entries {
		attach(n, k, valueToNode(v))
	}
	return n
}

// NewReference builds a reference node holding only the identifier value
// of a target of the given type. Resolution is late and re-evaluated on
// every access; see ResolveReference.
func NewReference(targetType string, id string, opts ...node.Option) *Node {
	return node.New(TypeDesc{Kind: ReferenceKind, Name: targetType}, id, opts...)
}

// valueToNode maps a plain value to a fresh node: objects become dicts,
// sequences become lists, everything else a scalar.
func valueToNode(v any) *Node {
	switch x := v.(type) {
	case map[string]any:
		return NewDict(x)
	case []any:
		return NewList(x)
	default:
		return NewScalar(v)
	}
}

// attach adds a freshly built child; the preconditions (live parent,
// unused key, detached child) hold by construction.
func attach(parent *Node, key string, child *Node) {
	if err := parent.AddChild(key, child); err != nil {
		panic(fmt.Sprintf("statetree: attach %q: %v", key, err))
	}
}

// syncList reconciles a list node's children against a replacement
// sequence: children with deep-equal snapshots are reused, changed and
// surplus children are destroyed, and new entries get fresh nodes.
func syncList(n *Node, old, new any) error {
	items, ok := new.([]any)
	if !ok && new != nil {
		return fmt.Errorf("list value must be a sequence, got %T", new)
	}
	for i, v := range items {
		key := strconv.Itoa(i)
		if c := n.Child(key); c != nil {
			if snapEqual(c, v) {
				continue
			}
			c.Destroy()
		}
		if err := n.AddChild(key, valueToNode(v)); err != nil {
			return err
		}
	}
	for i := len(items); ; i++ {
		c := n.Child(strconv.Itoa(i))
		if c == nil {
			break
		}
		c.Destroy()
	}
	return nil
}

// syncDict reconciles a dictionary node's children against a replacement
// mapping.
func syncDict(n *Node, old, new any) error {
	entries, ok := new.(map[string]any)
	if !ok && new != nil {
		return fmt.Errorf("dict value must be an object, got %T", new)
	}
	for k, v := range entries {
		if c := n.Child(k); c != nil {
			if snapEqual(c, v) {
				continue
			}
			c.Destroy()
		}
		if err := n.AddChild(k, valueToNode(v)); err != nil {
			return err
		}
	}
	for _, k := range n.ChildKeys() {
		if _, present := entries[k]; !present {
			n.Child(k).Destroy()
		}
	}
	return nil
}

func snapEqual(c *Node, v any) bool {
	return equalValues(node.Snapshot(c), v)
}
