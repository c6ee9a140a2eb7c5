// Package statetree is an observable, hierarchical state container: a
// runtime tree of mutable nodes with structural snapshotting, patch-based
// change propagation, stable cross-tree references by identifier, and
// reversible history.
//
// The package is the public facade. The engine lives in the node
// subpackage; identifier indexes live in registry; jsonptr implements the
// patch path syntax; encode serializes snapshots and patches.
//
// A minimal modeling shim is included: NewRecord, NewList, NewDict,
// NewScalar, and NewReference build trees from plain values, with default
// reconcilers for collection contents. Higher-level modeling layers
// supply their own node construction and sync callbacks through the node
// package directly.
package statetree

import (
	"context"

	"github.com/bmartel/jotai-state-tree/debug"
	"github.com/bmartel/jotai-state-tree/encode"
	"github.com/bmartel/jotai-state-tree/node"
	"github.com/bmartel/jotai-state-tree/registry"
)

// Core types, re-exported so embedders only import this package.
type (
	Node     = node.Node
	Patch    = node.Patch
	Op       = node.Op
	Kind     = node.Kind
	TypeDesc = node.TypeDesc

	PatchListener     = node.PatchListener
	SnapshotListener  = node.SnapshotListener
	LifecycleListener = node.LifecycleListener
	ActionListener    = node.ActionListener
	ActionCall        = node.ActionCall
)

const (
	OpReplace = node.OpReplace
	OpAdd     = node.OpAdd
	OpRemove  = node.OpRemove

	ScalarKind    = node.ScalarKind
	RecordKind    = node.RecordKind
	ListKind      = node.ListKind
	DictKind      = node.DictKind
	ReferenceKind = node.ReferenceKind
)

// Error taxonomy.
var (
	ErrDeadNode            = node.ErrDeadNode
	ErrInvalidPath         = node.ErrInvalidPath
	ErrUnresolvedReference = node.ErrUnresolvedReference
	ErrRegistrationTimeout = node.ErrRegistrationTimeout
)

// GetSnapshot derives a plain serializable value from the subtree rooted
// at target without mutating it or triggering listeners.
func GetSnapshot(target *Node) any {
	return node.Snapshot(target)
}

// ApplySnapshot ingests a plain value into the subtree rooted at target.
func ApplySnapshot(target *Node, value any) error {
	return node.ApplySnapshot(target, value)
}

// ApplyPatch applies one or more patches to the tree rooted at target.
func ApplyPatch(target *Node, patches ...Patch) error {
	if debug.Patch() {
		debug.Logf("apply at %s:\n%s", target, encode.PatchText(patches, encode.NewColors()))
	}
	return node.ApplyPatch(target, patches...)
}

// OnSnapshot subscribes to snapshot notifications on target and returns
// a disposer. Notifications are delivered only at the root of a tree.
func OnSnapshot(target *Node, fn SnapshotListener) func() {
	return target.OnSnapshot(fn)
}

// OnPatch subscribes to patches produced by target or any descendant and
// returns a disposer.
func OnPatch(target *Node, fn PatchListener) func() {
	return target.OnPatch(fn)
}

// OnLifecycle subscribes to liveness transitions of target.
func OnLifecycle(target *Node, fn LifecycleListener) func() {
	return target.OnLifecycle(fn)
}

// Destroy destroys target and its subtree, depth-first.
func Destroy(target *Node) {
	target.Destroy()
}

// Detach removes target from its parent without destroying it; target
// becomes the root of its own tree.
func Detach(target *Node) {
	target.Detach()
}

// IsAlive reports target's liveness.
func IsAlive(target *Node) bool {
	return target.IsAlive()
}

// RegisterIdentifier binds (typeName, id) to target in the default
// registry.
func RegisterIdentifier(target *Node, typeName, id string) error {
	return registry.Default().RegisterIdentifier(target, typeName, id)
}

// ResolveIdentifier looks (typeName, id) up in the default registry.
// Absence is reported, not raised.
func ResolveIdentifier(typeName, id string) (*Node, bool) {
	return registry.Default().Resolve(typeName, id)
}

// WaitForIdentifier blocks until (typeName, id) is registered in the
// default registry or ctx is done.
func WaitForIdentifier(ctx context.Context, typeName, id string) (*Node, error) {
	return registry.Default().WaitFor(ctx, typeName, id)
}
