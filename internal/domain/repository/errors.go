package repository

import "errors"

// ErrAlreadyExists indicates an entity with the same identifier already
// exists. Shared across storage implementations.
var ErrAlreadyExists = errors.New("already exists")
