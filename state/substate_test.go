package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstateSharesStorage(t *testing.T) {
	st := New()
	sub := st.Sub("child")

	require.NoError(t, sub.Set("a", 1))

	// The write is visible under the full key on the parent.
	v, err := st.Get("child.a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// And parent writes are visible through the view.
	require.NoError(t, st.Set("child.b", 2))
	v, err = sub.Get("b")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	// Change tracking is shared too.
	assert.ElementsMatch(t, []string{"child.a", "child.b"}, st.Changed())
}

func TestSubstateCompose(t *testing.T) {
	st := New()
	inner := st.Sub("a").Sub("b")
	assert.Equal(t, "a.b", inner.Prefix())

	require.NoError(t, inner.Set("k", "v"))
	v, err := st.Get("a.b.k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	flat := st.Sub("a.b")
	v, err = flat.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestSubstateKeysRelative(t *testing.T) {
	st := New()
	require.NoError(t, st.Set("grp.a", 1))
	require.NoError(t, st.Set("grp.deep.b", 2))
	require.NoError(t, st.Set("other", 3))

	sub := st.Sub("grp")
	assert.Equal(t, []string{"a", "deep.b"}, sub.Keys())
	assert.Equal(t, 2, sub.Len())
	assert.True(t, sub.Contains("a"))
	assert.False(t, sub.Contains("other"))
}

func TestSubstateEmptyPrefix(t *testing.T) {
	st := New()
	require.NoError(t, st.Set("a", 1))

	root := st.Sub("")
	assert.Equal(t, st.Keys(), root.Keys())

	v, err := root.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestSubstateDelete(t *testing.T) {
	st := New()
	require.NoError(t, st.Set("grp.a", 1))
	require.NoError(t, st.Set("grp.b", 2))

	sub := st.Sub("grp")
	require.NoError(t, sub.Delete("a"))
	assert.False(t, st.Contains("grp.a"))
	assert.Equal(t, []string{"b"}, sub.Keys())
}

func TestSubstateDefaults(t *testing.T) {
	st := New()
	sub := st.Sub("grp")

	v, err := sub.GetDefault("missing", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, v)
	assert.False(t, st.Contains("grp.missing"))

	v, err = sub.GetOrSet("seed", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.True(t, st.Contains("grp.seed"))
}
