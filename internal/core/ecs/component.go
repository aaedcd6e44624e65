package ecs

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
}

// DenseStore keeps components packed in a slice so the tick loop iterates
// contiguous memory. Remove swaps the last element into the hole.
type DenseStore[T any] struct {
	items []T
	ids   []EntityID
	index map[EntityID]int
}

func NewDenseStore[T any](capacity int) *DenseStore[T] {
	return &DenseStore[T]{
		items: make([]T, 0, capacity),
		ids:   make([]EntityID, 0, capacity),
		index: make(map[EntityID]int, capacity),
	}
}

// Set inserts or replaces the component for id.
func (s *DenseStore[T]) Set(id EntityID, c T) {
	if i, ok := s.index[id]; ok {
		s.items[i] = c
		return
	}
	s.index[id] = len(s.items)
	s.items = append(s.items, c)
	s.ids = append(s.ids, id)
}

func (s *DenseStore[T]) Get(id EntityID) (T, bool) {
	i, ok := s.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return s.items[i], true
}

func (s *DenseStore[T]) Remove(id EntityID) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	last := len(s.items) - 1
	if i != last {
		s.items[i] = s.items[last]
		s.ids[i] = s.ids[last]
		s.index[s.ids[i]] = i
	}
	var zero T
	s.items[last] = zero
	s.items = s.items[:last]
	s.ids = s.ids[:last]
	delete(s.index, id)
}

func (s *DenseStore[T]) Has(id EntityID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *DenseStore[T]) Len() int {
	return len(s.items)
}

// At returns the component at dense position i, 0 <= i < Len.
func (s *DenseStore[T]) At(i int) (EntityID, T) {
	return s.ids[i], s.items[i]
}

// Each visits components in dense order. fn must not add or remove.
func (s *DenseStore[T]) Each(fn func(EntityID, T)) {
	for i, c := range s.items {
		fn(s.ids[i], c)
	}
}
