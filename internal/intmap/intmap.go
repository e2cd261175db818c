// Package intmap provides a small open-addressing hash map from uint32 keys
// to uint32 values.
//
// It backs the automaton builder's control-flow table: written once during
// construction (including the subset closure pass), then only read during
// simulation. The map supports insert-or-update and lookup but no deletion,
// so probe chains never contain tombstones.
package intmap

// initialCapacity is the starting table size. Capacity is always a power
// of two so the hash can be masked instead of reduced modulo.
const initialCapacity = 4

type slot struct {
	key  uint32
	val  uint32
	used bool
}

// Map is an open-addressing hash table with linear probing.
// The zero value is not usable; call New.
type Map struct {
	slots []slot
	size  int
}

// New creates an empty map.
func New() *Map {
	return &Map{slots: make([]slot, initialCapacity)}
}

// hash mixes the high bits of the key down so that sparse bitmask keys
// (the common case for control-flow combinations) spread across the table.
func hash(key uint32) uint32 {
	return (key >> 20) ^ (key >> 8) ^ key
}

// Get returns the value stored for key. The second result reports whether
// the key is present; when it is false the first result is zero.
func (m *Map) Get(key uint32) (uint32, bool) {
	mask := uint32(len(m.slots) - 1)
	for i := hash(key) & mask; ; i = (i + 1) & mask {
		s := &m.slots[i]
		if !s.used {
			return 0, false
		}
		if s.key == key {
			return s.val, true
		}
	}
}

// Contains reports whether key is present.
func (m *Map) Contains(key uint32) bool {
	_, ok := m.Get(key)
	return ok
}

// Set inserts key with the given value, replacing any previous value.
func (m *Map) Set(key, val uint32) {
	// Grow when occupancy would exceed 75%.
	if (m.size+1)*4 > len(m.slots)*3 {
		m.grow()
	}
	m.insert(key, val)
}

func (m *Map) insert(key, val uint32) {
	mask := uint32(len(m.slots) - 1)
	for i := hash(key) & mask; ; i = (i + 1) & mask {
		s := &m.slots[i]
		if s.used {
			if s.key == key {
				s.val = val
				return
			}
			continue
		}
		s.key = key
		s.val = val
		s.used = true
		m.size++
		return
	}
}

// grow doubles the capacity and reinserts every occupied slot. Probe
// sequences are rebuilt from scratch, so the table stays tombstone-free.
func (m *Map) grow() {
	old := m.slots
	m.slots = make([]slot, 2*len(old))
	m.size = 0
	for i := range old {
		if old[i].used {
			m.insert(old[i].key, old[i].val)
		}
	}
}

// Len returns the number of stored keys.
func (m *Map) Len() int { return m.size }

// Keys returns a snapshot of the stored keys in unspecified order.
func (m *Map) Keys() []uint32 {
	keys := make([]uint32, 0, m.size)
	for i := range m.slots {
		if m.slots[i].used {
			keys = append(keys, m.slots[i].key)
		}
	}
	return keys
}

// Values returns a snapshot of the stored values in unspecified order.
// The order matches Keys when the map is not mutated in between.
func (m *Map) Values() []uint32 {
	vals := make([]uint32, 0, m.size)
	for i := range m.slots {
		if m.slots[i].used {
			vals = append(vals, m.slots[i].val)
		}
	}
	return vals
}
