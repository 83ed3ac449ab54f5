package domain

import "errors"

// ErrNotFound is returned by stores and services when no record matches.
var ErrNotFound = errors.New("not found")
