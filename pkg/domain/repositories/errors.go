package repositories

import "errors"

// ErrNotFound is returned by collaborators when a record does not exist
var ErrNotFound = errors.New("not found")
