package merge

// OrderedSet keeps the first-seen order of its items and drops duplicates.
// The zero value is ready to use.
type OrderedSet[T comparable] struct {
	items []T
	index map[T]struct{}
}

// NewOrderedSet returns a set holding items in first-seen order.
func NewOrderedSet[T comparable](items ...T) *OrderedSet[T] {
	s := &OrderedSet[T]{}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add appends item unless it is already present. It reports whether the set
// changed.
func (s *OrderedSet[T]) Add(item T) bool {
	if s.index == nil {
		s.index = make(map[T]struct{})
	}
	if _, ok := s.index[item]; ok {
		return false
	}
	s.index[item] = struct{}{}
	s.items = append(s.items, item)
	return true
}

// Contains reports whether item is in the set. Safe on a nil set.
func (s *OrderedSet[T]) Contains(item T) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[item]
	return ok
}

// Len returns the number of items.
func (s *OrderedSet[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns a copy of the items in order.
func (s *OrderedSet[T]) Items() []T {
	if s == nil || len(s.items) == 0 {
		return nil
	}
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Filter returns a new set with the items for which keep returns true,
// preserving order.
func (s *OrderedSet[T]) Filter(keep func(T) bool) *OrderedSet[T] {
	out := &OrderedSet[T]{}
	if s == nil {
		return out
	}
	for _, item := range s.items {
		if keep(item) {
			out.Add(item)
		}
	}
	return out
}
