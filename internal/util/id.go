// Package util contains small internal helpers shared across taskmesh
// packages. Nothing here is part of the public API.
package util

import "github.com/google/uuid"

// NewID returns a new random unique identifier string.
func NewID() string { return uuid.NewString() }
