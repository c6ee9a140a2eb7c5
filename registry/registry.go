// Package registry provides the two process-wide node indexes: a global
// id index used only for diagnostics and cleanup bookkeeping, and the
// type-partitioned identifier index that reference resolution reads.
// Entries are removed explicitly and synchronously when a node is
// destroyed; nothing here owns a node.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bmartel/jotai-state-tree/debug"
	"github.com/bmartel/jotai-state-tree/node"
)

// Registry indexes live nodes by id and by (type name, identifier).
type Registry struct {
	mu          sync.RWMutex
	nodes       map[uint64]*node.Node
	identifiers map[string]map[string]*node.Node
	waiters     map[string]map[string][]chan *node.Node
}

var defaultRegistry = New()

// Default returns the shared process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

func New() *Registry {
	return &Registry{
		nodes:       map[uint64]*node.Node{},
		identifiers: map[string]map[string]*node.Node{},
		waiters:     map[string]map[string][]chan *node.Node{},
	}
}

// AddNode records a node in the diagnostic id index and removes it again
// when the node is destroyed.
func (r *Registry) AddNode(n *node.Node) {
	r.mu.Lock()
	r.nodes[n.ID()] = n
	r.mu.Unlock()
	n.OnLifecycle(func(alive bool) {
		if !alive {
			r.RemoveNode(n)
		}
	})
}

// RemoveNode drops a node from the diagnostic id index.
func (r *Registry) RemoveNode(n *node.Node) {
	r.mu.Lock()
	delete(r.nodes, n.ID())
	r.mu.Unlock()
}

// NodeByID returns the node registered under id. This index is for
// diagnostics only; correctness-critical lookups go through Resolve.
func (r *Registry) NodeByID(id uint64) (*node.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[id]
	return n, ok
}

// NumNodes returns the size of the diagnostic id index.
func (r *Registry) NumNodes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// RegisterIdentifier binds (typeName, id) to n in the identifier index.
// A node already registered under another identifier is moved. The entry
// is removed synchronously when the node is destroyed. Registering a
// different live node under an occupied identifier is an error.
func (r *Registry) RegisterIdentifier(n *node.Node, typeName, id string) error {
	if !n.IsAlive() {
		return fmt.Errorf("register %s/%s: %w", typeName, id, node.ErrDeadNode)
	}
	if prevType, prevID, ok := n.Identifier(); ok {
		if prevType == typeName && prevID == id {
			return nil
		}
		r.UnregisterIdentifier(n)
	}
	r.mu.Lock()
	part := r.identifiers[typeName]
	if existing, ok := part[id]; ok && existing != n {
		r.mu.Unlock()
		return fmt.Errorf("register %s/%s: identifier already bound to %s", typeName, id, existing)
	}
	if part == nil {
		part = map[string]*node.Node{}
		r.identifiers[typeName] = part
	}
	part[id] = n
	waiting := r.takeWaiters(typeName, id)
	r.mu.Unlock()

	if debug.Registry() {
		debug.Logf("register %s/%s -> %s\n", typeName, id, n)
	}
	n.SetIdentifier(typeName, id)
	n.OnLifecycle(func(alive bool) {
		if !alive {
			r.UnregisterIdentifier(n)
		}
	})
	for _, ch := range waiting {
		ch <- n
	}
	return nil
}

// UnregisterIdentifier removes the node's identifier binding from the
// index, pruning an empty type partition.
func (r *Registry) UnregisterIdentifier(n *node.Node) {
	typeName, id, ok := n.Identifier()
	if !ok {
		return
	}
	r.mu.Lock()
	if part, ok := r.identifiers[typeName]; ok && part[id] == n {
		delete(part, id)
		if len(part) == 0 {
			delete(r.identifiers, typeName)
		}
	}
	r.mu.Unlock()
	if debug.Registry() {
		debug.Logf("unregister %s/%s\n", typeName, id)
	}
	n.ClearIdentifier()
}

// Resolve returns the live node registered under (typeName, id). Absence
// is not an error; callers decide whether it is fatal.
func (r *Registry) Resolve(typeName, id string) (*node.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.identifiers[typeName][id]
	return n, ok
}

// WaitFor blocks until a node is registered under (typeName, id) or ctx
// is done. A deadline expiry yields ErrRegistrationTimeout.
func (r *Registry) WaitFor(ctx context.Context, typeName, id string) (*node.Node, error) {
	r.mu.Lock()
	if n, ok := r.identifiers[typeName][id]; ok {
		r.mu.Unlock()
		return n, nil
	}
	ch := make(chan *node.Node, 1)
	part := r.waiters[typeName]
	if part == nil {
		part = map[string][]chan *node.Node{}
		r.waiters[typeName] = part
	}
	part[id] = append(part[id], ch)
	r.mu.Unlock()

	select {
	case n := <-ch:
		return n, nil
	case <-ctx.Done():
		r.dropWaiter(typeName, id, ch)
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("wait for %s/%s: %w", typeName, id, node.ErrRegistrationTimeout)
		}
		return nil, fmt.Errorf("wait for %s/%s: %w", typeName, id, err)
	}
}

// takeWaiters removes and returns the waiters for (typeName, id).
// Callers hold r.mu.
func (r *Registry) takeWaiters(typeName, id string) []chan *node.Node {
	part := r.waiters[typeName]
	if part == nil {
		return nil
	}
	waiting := part[id]
	delete(part, id)
	if len(part) == 0 {
		delete(r.waiters, typeName)
	}
	return waiting
}

func (r *Registry) dropWaiter(typeName, id string, ch chan *node.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	part := r.waiters[typeName]
	if part == nil {
		return
	}
	kept := part[id][:0]
	for _, c := range part[id] {
		if c != ch {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(part, id)
		if len(part) == 0 {
			delete(r.waiters, typeName)
		}
	} else {
		part[id] = kept
	}
}
