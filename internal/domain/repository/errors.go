package repository

import "errors"

// ErrNotFound is wrapped by repositories when a lookup matches nothing
var ErrNotFound = errors.New("not found")
