package springz

import "errors"

// Domain errors for registry operations.
var (
	// ErrNilNode indicates a nil node was passed where a node is required.
	ErrNilNode = errors.New("springz: nil node")

	// ErrForeignNode indicates a node that was not created by, or was
	// already removed from, the collection being asked to connect it.
	ErrForeignNode = errors.New("springz: connections can only be made between nodes created by this collection")

	// ErrSelfConnection indicates an attempt to connect a node to itself.
	ErrSelfConnection = errors.New("springz: cannot connect a node to itself")
)
