package node

import "errors"

var (
	// ErrDeadNode is raised on any mutation of a node whose liveness
	// flag is false.
	ErrDeadNode = errors.New("dead node")

	// ErrInvalidPath is raised when a patch or path resolution names a
	// segment with no corresponding child.
	ErrInvalidPath = errors.New("invalid path")

	// ErrUnresolvedReference is raised when a non-safe reference access
	// finds no registered target.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrRegistrationTimeout is raised when an identifier wait exceeds
	// its deadline.
	ErrRegistrationTimeout = errors.New("identifier registration timeout")
)
