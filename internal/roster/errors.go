package roster

import "errors"

var (
	// ErrValidation marks malformed input, e.g. a team made of one player twice.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks an external id reused with incompatible attributes.
	ErrConflict = errors.New("conflicting entity")
	// ErrDuplicateKey marks a violated run or snapshot uniqueness constraint.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrFormat marks a malformed tournament short code.
	ErrFormat = errors.New("invalid format")
	// ErrNotFound marks an unknown external or composed identifier.
	ErrNotFound = errors.New("not found")
)
