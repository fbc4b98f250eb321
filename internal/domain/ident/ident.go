// Package ident generates and checks entity identifiers.
//
// Identifiers are UUID strings. A string that does not parse as a UUID can
// never name a stored entity, so lookups treat it as not found.
package ident

import "github.com/google/uuid"

// New returns a fresh random identifier.
func New() string {
	return uuid.New().String()
}

// Valid reports whether id is well formed.
func Valid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
