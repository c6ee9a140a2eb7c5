package statetree

import (
	"fmt"

	"github.com/bmartel/jotai-state-tree/node"
	"github.com/bmartel/jotai-state-tree/registry"
)

// ResolveReference resolves a reference node to its live target. The
// lookup is late and never cached: each call re-resolves the stored
// identifier against the node's resolver (the default registry when none
// was set). An unresolved access fails with ErrUnresolvedReference
// unless the reference was declared safe, in which case it yields nil.
func ResolveReference(ref *Node) (*Node, error) {
	if ref.Kind() != ReferenceKind {
		return nil, fmt.Errorf("resolve reference at %q: node is %s, not a reference", ref.Path(), ref.Kind())
	}
	if !ref.IsAlive() {
		return nil, fmt.Errorf("resolve reference at %q: %w", ref.Path(), ErrDeadNode)
	}
	id := identifierString(ref.Value())
	var resolver node.Resolver = ref.Resolver()
	if resolver == nil {
		resolver = registry.Default()
	}
	target, ok := resolver.Resolve(ref.Type().Name, id)
	if !ok {
		if ref.Safe() {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve reference %s/%s at %q: %w",
			ref.Type().Name, id, ref.Path(), ErrUnresolvedReference)
	}
	return target, nil
}

// identifierString normalizes a stored identifier value to the string
// form the registry indexes by.
func identifierString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}
