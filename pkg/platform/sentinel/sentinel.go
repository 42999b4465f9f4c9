// Package sentinel holds storage-level facts. Stores return them, possibly
// wrapped, and services map them onto domain error codes.
package sentinel

import "errors"

var (
	// ErrNotFound means no row exists for the key: a user, a section, a
	// verification record.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness rule was hit, e.g. a second record for
	// the same user or a duplicate email.
	ErrConflict = errors.New("conflict")
)
