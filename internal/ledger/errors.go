package ledger

import "errors"

var (
	// ErrNotFound indicates no ledger row exists for the requested path.
	ErrNotFound = errors.New("ledger record not found")
	// ErrEmptyPath indicates an empty path or root was supplied.
	ErrEmptyPath = errors.New("path must not be empty")
)
