// Package ident provides time-ordered identifiers tagged with the entity
// type they identify.
package ident

import (
	"fmt"

	"github.com/dmitrijs2005/valet/internal/common"
	"github.com/google/uuid"
)

// ID identifies an entity of type T. Two IDs are equal iff their bits are
// equal; the tag only exists at compile time so a lot id cannot be passed
// where a record id is expected. At rest an ID is its canonical 36-character
// text form.
type ID[T any] struct {
	u uuid.UUID
}

// New returns a fresh UUIDv7 identifier. Identifiers created in one process
// sort in creation order.
func New[T any]() ID[T] {
	return ID[T]{u: uuid.Must(uuid.NewV7())}
}

// Parse reads an identifier from its canonical text form.
func Parse[T any](s string) (ID[T], error) {
	if len(s) != 36 {
		return ID[T]{}, fmt.Errorf("%w: %q", common.ErrMalformedIdentifier, s)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return ID[T]{}, fmt.Errorf("%w: %q: %v", common.ErrMalformedIdentifier, s, err)
	}
	return ID[T]{u: u}, nil
}

// String returns the canonical lower-case hyphenated form.
func (id ID[T]) String() string {
	return id.u.String()
}

// IsZero reports whether id is the zero value.
func (id ID[T]) IsZero() bool {
	return id.u == uuid.Nil
}
