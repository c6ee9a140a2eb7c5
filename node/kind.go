package node

// Kind partitions nodes by shape for snapshot and patch dispatch.
type Kind int

const (
	ScalarKind Kind = iota
	RecordKind
	ListKind
	DictKind
	ReferenceKind
)

var kindNames = map[Kind]string{
	ScalarKind:    "scalar",
	RecordKind:    "record",
	ListKind:      "list",
	DictKind:      "dict",
	ReferenceKind: "reference",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Kinds returns all node kinds in declaration order.
func Kinds() []Kind {
	return []Kind{ScalarKind, RecordKind, ListKind, DictKind, ReferenceKind}
}

// TypeDesc describes a node's shape kind together with a human-readable
// type name. For reference nodes, Name is the type name of the target.
type TypeDesc struct {
	Kind Kind
	Name string
}

func (t TypeDesc) String() string {
	if t.Name == "" {
		return t.Kind.String()
	}
	return t.Name
}
