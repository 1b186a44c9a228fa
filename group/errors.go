package group

import "errors"

var (
	// ErrRegistryRequired indicates that a registry is required but was not provided.
	ErrRegistryRequired = errors.New("registry is required")
)
