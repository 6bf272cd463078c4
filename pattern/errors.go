package pattern

import "errors"

// Sentinel errors for pattern generation.
var (
	// ErrNotDirected indicates an operation needs the directed double
	// cover of a network but received an undirected one.
	ErrNotDirected = errors.New("pattern: directed network required")

	// ErrTopology indicates the network topology does not permit the
	// operation, for example branching rows or unclosable cycles.
	ErrTopology = errors.New("pattern: invalid network topology")

	// ErrUnsupported indicates a requested option is not implemented.
	ErrUnsupported = errors.New("pattern: unsupported operation")
)
