package mapping

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	m := New()
	require.NoError(t, m.Set("a", 1))
	require.NoError(t, m.Set("b.c", "two"))
	require.NoError(t, m.Set("b.d.e", 3.0))

	v, err := m.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = m.Get("b.c")
	require.NoError(t, err)
	assert.Equal(t, "two", v)

	v, err = m.Get("b.d.e")
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
}

func TestGetSection(t *testing.T) {
	m := New()
	require.NoError(t, m.Set("a.b", 1))
	require.NoError(t, m.Set("a.c", 2))

	v, err := m.Get("a")
	require.NoError(t, err)
	sect, ok := v.(*Section)
	require.True(t, ok, "expected a *Section, got %T", v)
	assert.Equal(t, []string{"b", "c"}, sect.Names())
}

func TestOverwriteLeaf(t *testing.T) {
	m := New()
	require.NoError(t, m.Set("k", 1))
	require.NoError(t, m.Set("k", 2))

	v, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, m.Len())
}

func TestNotFound(t *testing.T) {
	m := New()
	require.NoError(t, m.Set("a.b", 1))

	_, err := m.Get("a.x")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Get("missing.section.key")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "missing")

	err = m.Delete("a.x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMalformedKeys(t *testing.T) {
	m := New()
	assert.ErrorIs(t, m.Set("", 1), ErrMalformedKey)
	assert.ErrorIs(t, m.Set("a..b", 1), ErrMalformedKey)
	assert.ErrorIs(t, m.Set(".a", 1), ErrMalformedKey)
	assert.ErrorIs(t, m.Set("a.", 1), ErrMalformedKey)
	assert.ErrorIs(t, m.Set("a/b", 1), ErrMalformedKey)

	_, err := m.Get("")
	assert.ErrorIs(t, err, ErrMalformedKey)
	assert.False(t, m.Contains("a..b"))
}

func TestLeafSectionConflict(t *testing.T) {
	m := New()

	// Leaf first, then a key below it.
	require.NoError(t, m.Set("a", 1))
	assert.ErrorIs(t, m.Set("a.b", 2), ErrConflict)

	// Section first, then a value at the section path.
	require.NoError(t, m.Set("s.x", 1))
	assert.ErrorIs(t, m.Set("s", 2), ErrConflict)

	// Deleting a section is also a conflict.
	assert.ErrorIs(t, m.Delete("s"), ErrConflict)
}

func TestDelete(t *testing.T) {
	m := New()
	require.NoError(t, m.Set("a.b", 1))
	require.NoError(t, m.Set("a.c", 2))

	require.NoError(t, m.Delete("a.b"))
	assert.False(t, m.Contains("a.b"))
	assert.True(t, m.Contains("a.c"))
	assert.Equal(t, []string{"a.c"}, m.Keys())
}

func TestKeysOrder(t *testing.T) {
	m := New()
	require.NoError(t, m.Set("a.b", 1))
	require.NoError(t, m.Set("a.c", 2))
	require.NoError(t, m.Set("z", 3))
	require.NoError(t, m.Set("a.d.e", 4))

	// Depth-first pre-order, insertion order within each section.
	assert.Equal(t, []string{"a.b", "a.c", "a.d.e", "z"}, m.Keys())
}

func TestLenMatchesKeys(t *testing.T) {
	m := New()
	assert.Equal(t, 0, m.Len())

	keys := []string{"a", "b.c", "b.d", "b.e.f.g"}
	for i, k := range keys {
		require.NoError(t, m.Set(k, i))
		assert.Equal(t, len(m.Keys()), m.Len())
	}
	assert.Equal(t, len(keys), m.Len())
}

func TestContains(t *testing.T) {
	m := New()
	require.NoError(t, m.Set("a.b", 1))

	assert.True(t, m.Contains("a.b"))
	assert.False(t, m.Contains("a.c"))
	// Sections are not leaves.
	assert.False(t, m.Contains("a"))
}

func TestMerge(t *testing.T) {
	m := New()
	require.NoError(t, m.Set("a", 1))
	require.NoError(t, m.Set("b.c", 2))

	other := New()
	require.NoError(t, other.Set("a", 100))
	require.NoError(t, other.Set("b.d", 3))
	require.NoError(t, other.Set("e", 4))

	require.NoError(t, m.Merge(other))

	// Existing values win.
	v, err := m.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = m.Get("b.d")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = m.Get("e")
	require.NoError(t, err)
	assert.Equal(t, 4, v)
}

func TestGetOrSet(t *testing.T) {
	m := New()

	v, err := m.GetOrSet("a.b", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = m.GetOrSet("a.b", 99)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestWalkAbort(t *testing.T) {
	m := New()
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, m.Set(k, k))
	}

	var seen []string
	stop := assert.AnError
	err := m.Walk(func(key string, _ any) error {
		seen = append(seen, key)
		if len(seen) == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestShow(t *testing.T) {
	m := New()
	require.NoError(t, m.Set("top", 1))
	require.NoError(t, m.Set("sect.inner", "v"))

	var buf bytes.Buffer
	m.Show(&buf)
	out := buf.String()
	assert.Contains(t, out, "top: 1")
	assert.Contains(t, out, "[sect]")
	assert.Contains(t, out, "inner: v")
}
