package statetree

import (
	"errors"
	"testing"

	"github.com/bmartel/jotai-state-tree/node"
)

func TestReferenceLifecycle(t *testing.T) {
	user := NewRecord(map[string]any{"name": "ada"})
	if err := RegisterIdentifier(user, "UserRef", "u1"); err != nil {
		t.Fatal(err)
	}
	ref := NewReference("UserRef", "u1")

	got, err := ResolveReference(ref)
	if err != nil {
		t.Fatal(err)
	}
	if got != user {
		t.Fatalf("resolved %v, want %v", got, user)
	}

	// destruction unregisters synchronously; the next access fails
	Destroy(user)
	if _, ok := ResolveIdentifier("UserRef", "u1"); ok {
		t.Error("identifier survives destruction")
	}
	if _, err := ResolveReference(ref); !errors.Is(err, ErrUnresolvedReference) {
		t.Errorf("got %v, want ErrUnresolvedReference", err)
	}
}

func TestReferenceSafe(t *testing.T) {
	ref := NewReference("SafeRef", "missing", node.WithSafeReference())
	got, err := ResolveReference(ref)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("safe miss resolved %v", got)
	}
}

func TestReferenceRebind(t *testing.T) {
	a := NewRecord(map[string]any{"v": 1})
	b := NewRecord(map[string]any{"v": 2})
	if err := RegisterIdentifier(a, "RebindRef", "x"); err != nil {
		t.Fatal(err)
	}
	if err := RegisterIdentifier(b, "RebindRef", "x"); err == nil {
		t.Error("second live node bound to an occupied identifier")
	}

	Destroy(a)
	if err := RegisterIdentifier(b, "RebindRef", "x"); err != nil {
		t.Fatal(err)
	}
	ref := NewReference("RebindRef", "x")
	got, err := ResolveReference(ref)
	if err != nil {
		t.Fatal(err)
	}
	if got != b {
		t.Fatal("reference did not follow the rebound identifier")
	}
	Destroy(b)
}

func TestReferenceCustomResolver(t *testing.T) {
	target := NewRecord(map[string]any{"v": 1})
	res := resolverFunc(func(typeName, id string) (*Node, bool) {
		if typeName == "Item" && id == "i1" {
			return target, true
		}
		return nil, false
	})
	ref := NewReference("Item", "i1", node.WithResolver(res))
	got, err := ResolveReference(ref)
	if err != nil {
		t.Fatal(err)
	}
	if got != target {
		t.Fatal("custom resolver bypassed")
	}
}

func TestReferenceKindChecks(t *testing.T) {
	if _, err := ResolveReference(NewScalar(1)); err == nil {
		t.Error("scalar resolved as reference")
	}
	ref := NewReference("DeadRef", "d1")
	Destroy(ref)
	if _, err := ResolveReference(ref); !errors.Is(err, ErrDeadNode) {
		t.Errorf("got %v, want ErrDeadNode", err)
	}
}

func TestReferenceSnapshotIsIdentifier(t *testing.T) {
	ref := NewReference("SnapRef", "s1")
	if got := GetSnapshot(ref); got != "s1" {
		t.Fatalf("reference snapshot %v", got)
	}
	if err := ref.SetValue("s2"); err != nil {
		t.Fatal(err)
	}
	if got := GetSnapshot(ref); got != "s2" {
		t.Fatalf("retargeted reference snapshot %v", got)
	}
}

type resolverFunc func(typeName, id string) (*Node, bool)

func (f resolverFunc) Resolve(typeName, id string) (*Node, bool) {
	return f(typeName, id)
}
