package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint, e.g. registering a username that already exists.
var ErrDuplicate = errors.New("duplicate")
