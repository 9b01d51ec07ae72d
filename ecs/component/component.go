package component

import (
	"errors"
	"sync/atomic"
)

var (
	ErrEntityNotAlive = errors.New("ecs: entity not alive")
	ErrNilComponent   = errors.New("ecs: component is nil")
)

// ID is the process-wide identifier of a component kind.
type ID uint32

var nextID atomic.Uint32

// Handle is the typed key for one component kind. Handles are created
// once at package init and shared by every world in the process.
type Handle[T any] struct {
	id ID
}

func New[T any]() Handle[T] {
	return Handle[T]{id: ID(nextID.Add(1))}
}

func (h Handle[T]) ID() ID {
	return h.id
}

func (h Handle[T]) Valid() bool {
	return h.id != 0
}
