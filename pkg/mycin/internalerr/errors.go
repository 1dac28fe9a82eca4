// Package internalerr holds the sentinels shared by the knowledge base,
// loaders and consultation stores. Callers match them with errors.Is.
package internalerr

import "errors"

var (
	// ErrNotFound: an undeclared param, context type or rule id, a rule over
	// a context with no instance, or an unknown consultation.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput: a reply that does not fit its param, a weight outside
	// [-1, 1], or a consultation without an id.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicate: a rule id or consultation id defined twice.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrStoreUnavailable: the consultation store cannot be opened, or none
	// is configured.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidConfig: a knowledge base or answers file that cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
)
