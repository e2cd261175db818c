// Package sparse provides a sparse set over small unsigned integers.
//
// The set supports O(1) insert, membership and clear, which is what the
// automaton builder needs for visited tracking while walking cyclic
// instruction graphs: the universe (instruction count) is known up front
// and the set is cleared once per traversal.
package sparse

// Set is a set of uint32 values below a fixed capacity.
// The classic sparse/dense pair makes Clear O(1) regardless of content.
type Set struct {
	sparse []uint32
	dense  []uint32
}

// NewSet creates a set holding values in [0, capacity).
func NewSet(capacity uint32) *Set {
	return &Set{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds value to the set. Inserting an existing value is a no-op.
// value must be below the capacity given to NewSet.
func (s *Set) Insert(value uint32) {
	if s.Contains(value) {
		return
	}
	s.sparse[value] = uint32(len(s.dense))
	s.dense = append(s.dense, value)
}

// Contains reports whether value is in the set.
func (s *Set) Contains(value uint32) bool {
	if value >= uint32(len(s.sparse)) {
		return false
	}
	idx := s.sparse[value]
	return idx < uint32(len(s.dense)) && s.dense[idx] == value
}

// Clear removes all elements in O(1).
func (s *Set) Clear() {
	s.dense = s.dense[:0]
}

// Len returns the number of elements.
func (s *Set) Len() int { return len(s.dense) }

// Values returns the elements in insertion order.
// The slice is valid until the next mutation.
func (s *Set) Values() []uint32 { return s.dense }
