// Package id provides UUIDv7 identifiers for documents and line items.
package id

import (
	"github.com/google/uuid"
)

// ID is a type alias for UUID.
type ID = uuid.UUID

// New generates a new time-ordered UUIDv7, so line ids sort in insertion order.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// ParseOrNew parses s, or generates a fresh ID when s is empty or malformed.
// Line rows arriving from the host UI may not carry an id yet.
func ParseOrNew(s string) ID {
	if s == "" {
		return New()
	}
	v, err := uuid.Parse(s)
	if err != nil {
		return New()
	}
	return v
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}
