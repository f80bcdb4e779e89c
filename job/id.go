package job

import "github.com/google/uuid"

// NewID generates a fresh job identifier. The spec recommends UUIDv4.
func NewID() string {
	return uuid.NewString()
}

// NewBatchID generates a fresh batch identifier.
func NewBatchID() string {
	return uuid.NewString()
}
