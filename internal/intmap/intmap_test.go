package intmap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmpty(t *testing.T) {
	m := New()
	assert.Equal(t, 0, m.Len())
	_, ok := m.Get(0)
	assert.False(t, ok)
	assert.False(t, m.Contains(42))
}

func TestSetGet(t *testing.T) {
	m := New()
	m.Set(1, 100)
	m.Set(2, 200)
	m.Set(3, 300)

	require.Equal(t, 3, m.Len())
	for k, want := range map[uint32]uint32{1: 100, 2: 200, 3: 300} {
		v, ok := m.Get(k)
		require.True(t, ok, "key %d", k)
		assert.Equal(t, want, v)
	}
	_, ok := m.Get(4)
	assert.False(t, ok)
}

func TestOverwrite(t *testing.T) {
	m := New()
	m.Set(7, 1)
	m.Set(7, 2)
	assert.Equal(t, 1, m.Len())
	v, ok := m.Get(7)
	require.True(t, ok)
	assert.Equal(t, uint32(2), v)
}

func TestZeroKey(t *testing.T) {
	// key 0 must be a regular key, not an empty-slot sentinel
	m := New()
	m.Set(0, 99)
	v, ok := m.Get(0)
	require.True(t, ok)
	assert.Equal(t, uint32(99), v)
}

func TestGrowth(t *testing.T) {
	m := New()
	const n = 10000
	for i := uint32(0); i < n; i++ {
		m.Set(i*7, i)
	}
	require.Equal(t, n, m.Len())
	for i := uint32(0); i < n; i++ {
		v, ok := m.Get(i * 7)
		require.True(t, ok, "key %d", i*7)
		require.Equal(t, i, v)
	}
}

func TestAgainstReference(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m := New()
	ref := make(map[uint32]uint32)
	for i := 0; i < 20000; i++ {
		k := uint32(rng.Intn(4096))
		v := rng.Uint32()
		m.Set(k, v)
		ref[k] = v
	}
	require.Equal(t, len(ref), m.Len())
	for k, want := range ref {
		v, ok := m.Get(k)
		require.True(t, ok)
		require.Equal(t, want, v)
	}
}

func TestKeysValues(t *testing.T) {
	m := New()
	m.Set(5, 50)
	m.Set(6, 60)
	assert.ElementsMatch(t, []uint32{5, 6}, m.Keys())
	assert.ElementsMatch(t, []uint32{50, 60}, m.Values())
}

// Trigger-subset keys are sparse bitmasks; make sure clustering on them
// stays functional.
func TestBitmaskKeys(t *testing.T) {
	m := New()
	for k := uint32(1); k < 1<<12; k++ {
		m.Set(k, ^k)
	}
	for k := uint32(1); k < 1<<12; k++ {
		v, ok := m.Get(k)
		require.True(t, ok)
		require.Equal(t, ^k, v)
	}
}
