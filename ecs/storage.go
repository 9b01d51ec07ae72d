package ecs

// sparseSet is the dense/sparse component storage backing one component
// kind. The sparse slice maps entity slot ids to dense indices; dense
// entries carry the full Entity handle so stale generations never alias.
type sparseSet[T any] struct {
	dense  []Entity
	values []*T
	sparse []int32 // indexed by slot id-1, -1 = absent
}

type storage interface {
	removeID(id entityID) bool
}

func (s *sparseSet[T]) index(id entityID) int {
	if id == 0 || int(id) > len(s.sparse) {
		return -1
	}
	idx := s.sparse[id-1]
	if idx < 0 || int(idx) >= len(s.dense) || s.dense[idx].id() != id {
		return -1
	}
	return int(idx)
}

func (s *sparseSet[T]) get(e Entity) (*T, bool) {
	idx := s.index(e.id())
	if idx < 0 || s.dense[idx] != e {
		return nil, false
	}
	return s.values[idx], true
}

func (s *sparseSet[T]) set(e Entity, v *T) {
	id := e.id()
	for int(id) > len(s.sparse) {
		s.sparse = append(s.sparse, -1)
	}
	if idx := s.index(id); idx >= 0 {
		s.dense[idx] = e
		s.values[idx] = v
		return
	}
	s.dense = append(s.dense, e)
	s.values = append(s.values, v)
	s.sparse[id-1] = int32(len(s.dense) - 1)
}

func (s *sparseSet[T]) removeID(id entityID) bool {
	idx := s.index(id)
	if idx < 0 {
		return false
	}
	last := len(s.dense) - 1
	lastID := s.dense[last].id()

	s.dense[idx] = s.dense[last]
	s.values[idx] = s.values[last]
	s.sparse[lastID-1] = int32(idx)

	s.dense[last] = 0
	s.values[last] = nil
	s.dense = s.dense[:last]
	s.values = s.values[:last]
	s.sparse[id-1] = -1
	return true
}
