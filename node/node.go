// Package node implements the tree node lifecycle and change propagation
// engine: node identity and ownership, parent/child composition, snapshot
// derivation, patch generation and application, and the listener sets the
// history managers are built on.
//
// A Node wraps a Cell (for scalar and reference kinds) or a keyed set of
// child nodes (for record, list, and dict kinds). Mutation goes through
// SetValue, ApplySnapshot, or ApplyPatch; each logical change produces one
// forward/inverse patch pair delivered to patch listeners on the mutated
// node and every ancestor, followed by exactly one snapshot notification
// at the root.
package node

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bmartel/jotai-state-tree/jsonptr"
)

var idCounter atomic.Uint64

// SyncFunc reconciles a collection node's children after its contents are
// replaced wholesale. Implementations diff old against new, reuse child
// nodes for unchanged entries, destroy children that disappear, and create
// nodes for entries that appear.
type SyncFunc func(n *Node, old, new any) error

// Resolver finds the live node registered under a (type name, identifier)
// pair. The identifier registry implements this.
type Resolver interface {
	Resolve(typeName, id string) (*Node, bool)
}

type (
	// PatchListener observes one forward patch and its inverse, with
	// paths rebased relative to the listening node.
	PatchListener func(patch, inverse Patch)

	// SnapshotListener observes the root snapshot after a mutation.
	SnapshotListener func(snapshot any)

	// LifecycleListener observes liveness transitions; it is fired with
	// false when the node is destroyed.
	LifecycleListener func(alive bool)

	// ActionListener observes a completed action on the node or one of
	// its descendants.
	ActionListener func(call ActionCall)
)

// ActionCall describes one mutation-attributing action invocation.
type ActionCall struct {
	Name string
	Path string
	Args []any
}

// Node is the atomic unit of tree structure.
type Node struct {
	id        uint64
	createdAt time.Time
	typ       TypeDesc

	cell     Cell
	parent   *Node
	key      string
	children map[string]*Node
	path     string

	env      any
	alive    bool
	safe     bool
	volatile map[string]any

	identifierType string
	identifier     string
	hasIdentifier  bool

	pre      func(any) any
	post     func(any) any
	sync     SyncFunc
	resolver Resolver

	patchListeners     listeners[PatchListener]
	snapshotListeners  listeners[SnapshotListener]
	lifecycleListeners listeners[LifecycleListener]
	actionRecorders    listeners[ActionListener]
}

// Option configures a node at construction.
type Option func(*Node)

// WithEnv sets the node's environment; when unset the environment of the
// nearest ancestor that defines one is inherited at attach time.
func WithEnv(env any) Option {
	return func(n *Node) { n.env = env }
}

// WithPreProcess sets the transform applied to an incoming value before
// it is ingested by ApplySnapshot.
func WithPreProcess(fn func(any) any) Option {
	return func(n *Node) { n.pre = fn }
}

// WithPostProcess sets the transform applied to a derived snapshot.
func WithPostProcess(fn func(any) any) Option {
	return func(n *Node) { n.post = fn }
}

// WithSync sets the collection reconciliation callback.
func WithSync(fn SyncFunc) Option {
	return func(n *Node) { n.sync = fn }
}

// WithResolver sets the resolver used for reference access on this node.
func WithResolver(r Resolver) Option {
	return func(n *Node) { n.resolver = r }
}

// WithSafeReference makes reference access yield absence instead of
// ErrUnresolvedReference when no target is registered.
func WithSafeReference() Option {
	return func(n *Node) { n.safe = true }
}

// New creates a live, detached root node. The value is stored in the cell
// for scalar and reference kinds and ignored for collection kinds, whose
// contents are composed with AddChild.
func New(typ TypeDesc, value any, opts ...Option) *Node {
	n := &Node{
		id:        idCounter.Add(1),
		createdAt: time.Now(),
		typ:       typ,
		alive:     true,
		children:  map[string]*Node{},
	}
	switch typ.Kind {
	case ScalarKind, ReferenceKind:
		n.cell.value = value
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Node) ID() uint64           { return n.id }
func (n *Node) CreatedAt() time.Time { return n.createdAt }
func (n *Node) Type() TypeDesc       { return n.typ }
func (n *Node) Kind() Kind           { return n.typ.Kind }
func (n *Node) IsAlive() bool        { return n.alive }
func (n *Node) Path() string         { return n.path }
func (n *Node) Key() string          { return n.key }
func (n *Node) Parent() *Node        { return n.parent }
func (n *Node) Safe() bool           { return n.safe }
func (n *Node) Resolver() Resolver   { return n.resolver }

func (n *Node) String() string {
	return fmt.Sprintf("%s#%d%s", n.typ, n.id, n.path)
}

// Environment returns the node's own environment or, failing that, the
// environment of the nearest ancestor that defines one.
func (n *Node) Environment() any {
	for a := n; a != nil; a = a.parent {
		if a.env != nil {
			return a.env
		}
	}
	return nil
}

// Root walks the parent chain to the tree root.
func (n *Node) Root() *Node {
	res := n
	for res.parent != nil {
		res = res.parent
	}
	return res
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.parent == nil
}

// Child returns the child under key, or nil.
func (n *Node) Child(key string) *Node {
	return n.children[key]
}

// NumChildren returns the number of live children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildKeys returns the child keys in stable iteration order: numeric
// order for list nodes, lexical order otherwise.
func (n *Node) ChildKeys() []string {
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	if n.typ.Kind == ListKind {
		slices.SortFunc(keys, compareNumeric)
	} else {
		slices.Sort(keys)
	}
	return keys
}

// Children returns the child mapping. The returned map is a copy; mutate
// the tree through AddChild and RemoveChild.
func (n *Node) Children() map[string]*Node {
	res := make(map[string]*Node, len(n.children))
	for k, c := range n.children {
		res[k] = c
	}
	return res
}

// Value returns the stored value for scalar and reference nodes and the
// derived snapshot for collection nodes.
func (n *Node) Value() any {
	switch n.typ.Kind {
	case ScalarKind, ReferenceKind:
		return n.cell.Get()
	default:
		return Snapshot(n)
	}
}

// AddChild attaches a detached live node under key, recomputing the paths
// of the node and its entire subtree. The key must not name a live child.
func (n *Node) AddChild(key string, child *Node) error {
	if !n.alive {
		return fmt.Errorf("add child %q at %q: %w", key, n.path, ErrDeadNode)
	}
	if child == nil || !child.alive {
		return fmt.Errorf("add child %q at %q: %w", key, n.path, ErrDeadNode)
	}
	if child.parent != nil {
		return fmt.Errorf("add child %q at %q: node %s already has a parent", key, n.path, child)
	}
	// a detached node can still be this node's own root
	for a := n; a != nil; a = a.parent {
		if a == child {
			return fmt.Errorf("add child %q at %q: node %s is an ancestor", key, n.path, child)
		}
	}
	if _, ok := n.children[key]; ok {
		return fmt.Errorf("add child %q at %q: key occupied", key, n.path)
	}
	n.children[key] = child
	child.parent = n
	child.key = key
	child.recomputePaths()
	return nil
}

// RemoveChild detaches and destroys the child under key. Detaching
// without destruction is Detach on the child.
func (n *Node) RemoveChild(key string) error {
	if !n.alive {
		return fmt.Errorf("remove child %q at %q: %w", key, n.path, ErrDeadNode)
	}
	child, ok := n.children[key]
	if !ok {
		return fmt.Errorf("remove child %q at %q: %w", key, n.path, ErrInvalidPath)
	}
	child.Destroy()
	return nil
}

// Detach removes the node from its parent and clears its path, making it
// a new root. Liveness and identity are retained.
func (n *Node) Detach() {
	if n.parent == nil {
		return
	}
	delete(n.parent.children, n.key)
	n.parent = nil
	n.key = ""
	n.recomputePaths()
}

// Destroy destroys the subtree depth-first, fires lifecycle listeners
// with false, clears all listener sets, and detaches from the parent.
// It is idempotent; a destroyed node can never be re-attached.
func (n *Node) Destroy() {
	if !n.alive {
		return
	}
	for _, key := range n.ChildKeys() {
		n.children[key].Destroy()
	}
	n.alive = false
	n.lifecycleListeners.each(func(fn LifecycleListener) {
		fn(false)
	})
	n.patchListeners.clear()
	n.snapshotListeners.clear()
	n.lifecycleListeners.clear()
	n.actionRecorders.clear()
	n.volatile = nil
	if n.parent != nil {
		delete(n.parent.children, n.key)
		n.parent = nil
		n.key = ""
	}
}

// Walk visits the subtree in the order of ChildKeys, calling f before and
// after each node's children. Returning false from the pre call skips the
// node's children.
func (n *Node) Walk(f func(n *Node, post bool) (bool, error)) error {
	dive, err := f(n, false)
	if err != nil {
		return err
	}
	if dive {
		for _, key := range n.ChildKeys() {
			if err := n.children[key].Walk(f); err != nil {
				return err
			}
		}
	}
	_, err = f(n, true)
	return err
}

// SetIdentifier records the node's identifier binding. Registration in an
// identifier index is the registry's concern; the binding here is what
// the registry reads back to unregister.
func (n *Node) SetIdentifier(typeName, id string) {
	n.identifierType = typeName
	n.identifier = id
	n.hasIdentifier = true
}

// ClearIdentifier removes the identifier binding.
func (n *Node) ClearIdentifier() {
	n.identifierType = ""
	n.identifier = ""
	n.hasIdentifier = false
}

// Identifier returns the node's identifier binding, if any.
func (n *Node) Identifier() (typeName, id string, ok bool) {
	return n.identifierType, n.identifier, n.hasIdentifier
}

// SetVolatile attaches an un-serialized value to the node. Volatile state
// never appears in snapshots.
func (n *Node) SetVolatile(key string, v any) {
	if n.volatile == nil {
		n.volatile = map[string]any{}
	}
	n.volatile[key] = v
}

// Volatile returns the volatile value under key.
func (n *Node) Volatile(key string) (any, bool) {
	v, ok := n.volatile[key]
	return v, ok
}

// DeleteVolatile removes the volatile value under key.
func (n *Node) DeleteVolatile(key string) {
	delete(n.volatile, key)
}

// OnPatch subscribes to patches produced by the node or any descendant
// and returns a disposer.
func (n *Node) OnPatch(fn PatchListener) func() {
	return n.patchListeners.add(fn)
}

// OnSnapshot subscribes to snapshot notifications. They are delivered
// only while the node is the root of its tree.
func (n *Node) OnSnapshot(fn SnapshotListener) func() {
	return n.snapshotListeners.add(fn)
}

// OnLifecycle subscribes to liveness transitions and returns a disposer.
func (n *Node) OnLifecycle(fn LifecycleListener) func() {
	return n.lifecycleListeners.add(fn)
}

// OnAction subscribes a per-node action recorder, notified for actions
// run on the node or any of its descendants.
func (n *Node) OnAction(fn ActionListener) func() {
	return n.actionRecorders.add(fn)
}

// NotifyAction delivers a completed action to the recorders of the node
// and every ancestor.
func (n *Node) NotifyAction(call ActionCall) {
	for a := n; a != nil; a = a.parent {
		a.actionRecorders.each(func(fn ActionListener) {
			fn(call)
		})
	}
}

// recomputePaths re-derives the path of the node and every descendant
// from the current parent chain.
func (n *Node) recomputePaths() {
	if n.parent == nil {
		n.path = ""
	} else {
		n.path = jsonptr.Append(n.parent.path, n.key)
	}
	for _, c := range n.children {
		c.recomputePaths()
	}
}

// compareNumeric orders numeric keys by value, with non-numeric keys
// after them lexically.
func compareNumeric(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai - bi
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
