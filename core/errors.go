package core

import "errors"

var (
	// ErrAlreadyConsumed is returned when a single-pass producer is read twice.
	ErrAlreadyConsumed = errors.New("stream already consumed")
	// ErrRequiresMemory is returned when an operation needs to materialize a
	// source that is known to exceed the in-memory threshold.
	ErrRequiresMemory = errors.New("operation requires materializing the stream in memory")
	// ErrUnsortedInput is wrapped by merge join ordering failures.
	ErrUnsortedInput = errors.New("input is not sorted")
	// ErrCyclicDependency is wrapped by dependency resolution failures.
	ErrCyclicDependency = errors.New("cyclic dependency")
	// ErrAmbiguousMerge is returned when a join would produce overlapping field
	// names and no merge function was supplied.
	ErrAmbiguousMerge = errors.New("ambiguous merge")

	ErrUnknownField   = errors.New("unknown field")
	ErrOutOfRange     = errors.New("index out of range")
	ErrMissingKey     = errors.New("missing key")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrDuplicateField = errors.New("duplicate field")
	ErrMissingStruct  = errors.New("struct is required")
	ErrInvalidKind    = errors.New("invalid item kind")
	ErrNoNext         = errors.New("no next item")
)
