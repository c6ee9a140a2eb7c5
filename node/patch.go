package node

import (
	"fmt"

	"github.com/bmartel/jotai-state-tree/debug"
	"github.com/bmartel/jotai-state-tree/jsonptr"
)

// Op is a patch operation kind.
type Op string

const (
	OpReplace Op = "replace"
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
)

// Patch is a single structural edit addressed by an RFC 6901 path. The
// wire format carries Op, Path, and Value; OldValue is populated on
// patches produced by the tree so that each patch is reversible.
type Patch struct {
	Op       Op     `json:"op"`
	Path     string `json:"path"`
	Value    any    `json:"value,omitempty"`
	OldValue any    `json:"oldValue,omitempty"`
}

// Inverse returns the patch that undoes p. It relies on OldValue being
// populated for replace and remove operations.
func (p Patch) Inverse() Patch {
	switch p.Op {
	case OpAdd:
		return Patch{Op: OpRemove, Path: p.Path, OldValue: p.Value}
	case OpRemove:
		return Patch{Op: OpAdd, Path: p.Path, Value: p.OldValue}
	default:
		return Patch{Op: OpReplace, Path: p.Path, Value: p.OldValue, OldValue: p.Value}
	}
}

func (p Patch) String() string {
	path := p.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s %s", p.Op, path)
}

// SetValue replaces the node's value. For scalar and reference nodes the
// cell is written; for collection nodes the sync callback reconciles the
// children against the new contents; for record nodes the value is merged
// by key into the existing children, which emit their own patches. Every
// other kind synthesizes one replace patch (forward and inverse) at the
// node's path, notifies patch listeners bubbling to the root, and then
// triggers a single snapshot notification at the root.
func (n *Node) SetValue(v any) error {
	return n.setValue(v, nil, nil)
}

// setValue is SetValue with an optional override for the emitted patch
// pair, used by patch application to surface add/remove edits instead of
// a wholesale collection replace.
func (n *Node) setValue(v any, fwd, inv *Patch) error {
	if !n.alive {
		return fmt.Errorf("set value at %q: %w", n.path, ErrDeadNode)
	}
	var f, i Patch
	switch n.typ.Kind {
	case RecordKind:
		return applyRecord(n, v)
	case ListKind, DictKind:
		old := Snapshot(n)
		if n.sync != nil {
			if err := n.sync(n, old, v); err != nil {
				return fmt.Errorf("sync at %q: %w", n.path, err)
			}
		}
		if fwd == nil {
			f = Patch{Op: OpReplace, Path: n.path, Value: Snapshot(n), OldValue: old}
			i = f.Inverse()
		} else {
			f, i = *fwd, *inv
		}
	default:
		old := n.cell.Get()
		n.cell.Set(v)
		if fwd == nil {
			f = Patch{Op: OpReplace, Path: n.path, Value: v, OldValue: old}
			i = f.Inverse()
		} else {
			f, i = *fwd, *inv
		}
	}
	n.emitPatch(f, i)
	n.Root().emitSnapshot()
	return nil
}

// emitPatch delivers the patch pair to the node's own patch listeners and
// those of every ancestor, in ancestor order, rebasing paths relative to
// each listening node.
func (n *Node) emitPatch(fwd, inv Patch) {
	if debug.Patch() {
		debug.Logf("emit %s from %s\n", fwd, n)
	}
	for a := n; a != nil; a = a.parent {
		relF, relI := fwd, inv
		if a.path != "" {
			relF.Path, _ = jsonptr.Rebase(fwd.Path, a.path)
			relI.Path, _ = jsonptr.Rebase(inv.Path, a.path)
		}
		a.patchListeners.each(func(fn PatchListener) {
			fn(relF, relI)
		})
	}
}

// emitSnapshot recomputes and delivers the root snapshot. It is a no-op
// on nodes without snapshot listeners.
func (n *Node) emitSnapshot() {
	if n.snapshotListeners.len() == 0 {
		return
	}
	snap := Snapshot(n)
	if debug.Snapshot() {
		debug.Logf("snapshot notify at %s\n", n)
	}
	n.snapshotListeners.each(func(fn SnapshotListener) {
		fn(snap)
	})
}
