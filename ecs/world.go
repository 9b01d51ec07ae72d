package ecs

import (
	"blockcity/ecs/component"
)

// World owns entities, component storage, and the tick event queue.
// All access is single-threaded; systems run strictly in scheduler order.
type World struct {
	entities entityStore
	stores   []storage
	events   EventQueue

	physics *PhysicsWorld
}

func NewWorld() *World {
	return &World{}
}

func CreateEntity(w *World) Entity {
	return w.entities.create()
}

// DestroyEntity removes the entity and every component attached to it.
func DestroyEntity(w *World, e Entity) bool {
	if !w.entities.destroy(e) {
		return false
	}
	for _, st := range w.stores {
		if st != nil {
			st.removeID(e.id())
		}
	}
	return true
}

func IsAlive(w *World, e Entity) bool {
	return w.entities.alive(e)
}

// Entities returns every live entity handle. Allocates; intended for
// tests and spawn logic, not per-tick system loops.
func Entities(w *World) []Entity {
	out := make([]Entity, 0, w.entities.count)
	for i, gen := range w.entities.gens {
		e := makeEntity(entityID(i+1), gen)
		if w.entities.alive(e) {
			out = append(out, e)
		}
	}
	return out
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	return &w.events
}

// SetPhysicsWorld attaches a rigid-body physics world.
func (w *World) SetPhysicsWorld(pw *PhysicsWorld) {
	w.physics = pw
}

// PhysicsWorld returns the attached physics world, if any.
func (w *World) PhysicsWorld() *PhysicsWorld {
	return w.physics
}

func storeFor[T any](w *World, h component.Handle[T]) *sparseSet[T] {
	id := int(h.ID())
	for id >= len(w.stores) {
		w.stores = append(w.stores, nil)
	}
	if w.stores[id] == nil {
		w.stores[id] = &sparseSet[T]{}
	}
	return w.stores[id].(*sparseSet[T])
}

// Add attaches a component to a live entity.
func Add[T any](w *World, e Entity, h component.Handle[T], v *T) error {
	if v == nil {
		return component.ErrNilComponent
	}
	if !w.entities.alive(e) {
		return component.ErrEntityNotAlive
	}
	storeFor(w, h).set(e, v)
	return nil
}

// Get returns the component for a live entity. A stale handle from a
// destroyed entity never resolves, even if the slot was reused.
func Get[T any](w *World, e Entity, h component.Handle[T]) (*T, bool) {
	if !w.entities.alive(e) {
		return nil, false
	}
	return storeFor(w, h).get(e)
}

func Has[T any](w *World, e Entity, h component.Handle[T]) bool {
	_, ok := Get(w, e, h)
	return ok
}

func Remove[T any](w *World, e Entity, h component.Handle[T]) bool {
	if !w.entities.alive(e) {
		return false
	}
	return storeFor(w, h).removeID(e.id())
}

// First returns any entity carrying the component, or false.
func First[T any](w *World, h component.Handle[T]) (Entity, bool) {
	st := storeFor(w, h)
	for _, e := range st.dense {
		if w.entities.alive(e) {
			return e, true
		}
	}
	return 0, false
}

// ForEach visits every live entity carrying the component.
func ForEach[T any](w *World, h component.Handle[T], fn func(e Entity, v *T)) {
	st := storeFor(w, h)
	for i := 0; i < len(st.dense); i++ {
		e := st.dense[i]
		if w.entities.alive(e) {
			fn(e, st.values[i])
		}
	}
}

// ForEach2 visits every live entity carrying both components, iterating
// the smaller storage.
func ForEach2[A, B any](w *World, ha component.Handle[A], hb component.Handle[B], fn func(e Entity, a *A, b *B)) {
	sa := storeFor(w, ha)
	sb := storeFor(w, hb)
	if len(sb.dense) < len(sa.dense) {
		for i := 0; i < len(sb.dense); i++ {
			e := sb.dense[i]
			if !w.entities.alive(e) {
				continue
			}
			if a, ok := sa.get(e); ok {
				fn(e, a, sb.values[i])
			}
		}
		return
	}
	for i := 0; i < len(sa.dense); i++ {
		e := sa.dense[i]
		if !w.entities.alive(e) {
			continue
		}
		if b, ok := sb.get(e); ok {
			fn(e, sa.values[i], b)
		}
	}
}

// ForEach3 visits every live entity carrying all three components.
func ForEach3[A, B, C any](w *World, ha component.Handle[A], hb component.Handle[B], hc component.Handle[C], fn func(e Entity, a *A, b *B, c *C)) {
	ForEach2(w, ha, hb, func(e Entity, a *A, b *B) {
		if c, ok := Get(w, e, hc); ok {
			fn(e, a, b, c)
		}
	})
}
