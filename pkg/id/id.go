package id

import (
	"strings"

	"github.com/google/uuid"
)

// NewRunID returns a random v4 UUID as 32 lowercase hex characters.
func NewRunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Valid reports whether s looks like an id produced by NewRunID.
func Valid(s string) bool {
	if len(s) != 32 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
