package exec

import "errors"

var (
	// ErrRegistryRequired is returned when a registry is not provided.
	ErrRegistryRequired = errors.New("registry required")

	// ErrAlgorithmRequired is returned when a job has no algorithm.
	ErrAlgorithmRequired = errors.New("algorithm required")

	// ErrMissingOutput is returned when an algorithm does not fill an output
	// slot the job publishes.
	ErrMissingOutput = errors.New("missing output")
)
