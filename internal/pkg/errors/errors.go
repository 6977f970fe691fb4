package errors

import "errors"

var (
	// ErrNotFound is returned when a mutation targets an absent record.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when inserting over a live record.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrEmbeddingUnavailable wraps failures of the embedding service.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrIndexUnavailable wraps failures of the vector index store.
	ErrIndexUnavailable = errors.New("index unavailable")
)
