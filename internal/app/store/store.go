/*
Package store declares the errors every persistence backend (memstore, db, docstore)
reports, so services can tell a missing record from a failing database without knowing
which backend is in use.
*/
package store

import "errors"

var (
	// ErrNotFound is returned when no record matches, including records owned by someone else.
	ErrNotFound = errors.New("store: record not found")

	// ErrDuplicate is returned when a unique key (username, subscription endpoint) is taken.
	ErrDuplicate = errors.New("store: duplicate record")

	// ErrInvalidID is returned when an id is not well formed for the backend (uuid, ObjectID).
	ErrInvalidID = errors.New("store: malformed id")
)

// IsNotFound reports whether err is ErrNotFound or ErrInvalidID. A malformed id can
// never match a record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidID)
}
