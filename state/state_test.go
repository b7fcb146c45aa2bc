package state

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadYourWrites(t *testing.T) {
	st := New()
	require.NoError(t, st.Set("a", 1))
	require.NoError(t, st.Set("grp.b", "two"))

	v, err := st.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = st.Get("grp.b")
	require.NoError(t, err)
	assert.Equal(t, "two", v)

	require.NoError(t, st.Set("a", 10))
	v, err = st.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 10, v)
}

func TestGetMissing(t *testing.T) {
	st := New()
	_, err := st.Get("nope")
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMalformedKey(t *testing.T) {
	st := New()
	assert.ErrorIs(t, st.Set("a..b", 1), ErrMalformedKey)
	assert.ErrorIs(t, st.Set("a/b", 1), ErrMalformedKey)
	_, err := st.Get("")
	assert.ErrorIs(t, err, ErrMalformedKey)
}

func TestLeafSectionConflict(t *testing.T) {
	st := New()
	require.NoError(t, st.Set("a", 1))
	assert.ErrorIs(t, st.Set("a.b", 2), ErrConflict)

	require.NoError(t, st.Set("s.x", 1))
	assert.ErrorIs(t, st.Set("s", 2), ErrConflict)
	assert.ErrorIs(t, st.Delete("s"), ErrConflict)
}

func TestGetSectionView(t *testing.T) {
	st := New()
	require.NoError(t, st.Set("grp.a", 1))
	require.NoError(t, st.Set("grp.b", 2))

	v, err := st.Get("grp")
	require.NoError(t, err)
	sub, ok := v.(*Substate)
	require.True(t, ok, "expected a *Substate, got %T", v)
	assert.Equal(t, "grp", sub.Prefix())
	assert.Equal(t, []string{"a", "b"}, sub.Keys())
}

func TestDeleteTombstones(t *testing.T) {
	st := New()
	require.NoError(t, st.Set("a", 1))
	require.NoError(t, st.Set("b", 2))

	require.NoError(t, st.Delete("a"))
	assert.False(t, st.Contains("a"))
	assert.Equal(t, []string{"b"}, st.Keys())
	assert.Equal(t, 1, st.Len())

	_, err := st.Get("a")
	assert.True(t, IsNotFound(err))

	// Repeated deletes before a save are idempotent.
	require.NoError(t, st.Delete("a"))
	assert.False(t, st.Contains("a"))

	// A fresh set resurrects the key.
	require.NoError(t, st.Set("a", 3))
	v, err := st.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestDeleteMissing(t *testing.T) {
	st := New()
	assert.ErrorIs(t, st.Delete("ghost"), ErrNotFound)
}

func TestGetDefault(t *testing.T) {
	st := New()
	require.NoError(t, st.Set("present", 1))

	v, err := st.GetDefault("present", 99)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = st.GetDefault("absent", 99)
	require.NoError(t, err)
	assert.Equal(t, 99, v)
	// GetDefault does not store.
	assert.False(t, st.Contains("absent"))

	// Non-not-found errors propagate.
	_, err = st.GetDefault("a..b", 99)
	assert.ErrorIs(t, err, ErrMalformedKey)
}

func TestGetOrSet(t *testing.T) {
	st := New()

	v, err := st.GetOrSet("counter", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	assert.True(t, st.Contains("counter"))

	v, err = st.GetOrSet("counter", 100)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestLenMatchesKeys(t *testing.T) {
	st := New()
	require.NoError(t, st.Set("a", 1))
	require.NoError(t, st.Set("b.c", 2))
	require.NoError(t, st.Set("b.d", 3))

	assert.Equal(t, len(st.Keys()), st.Len())
	assert.Equal(t, []string{"a", "b.c", "b.d"}, st.Keys())

	require.NoError(t, st.Delete("b.c"))
	assert.Equal(t, len(st.Keys()), st.Len())
	assert.Equal(t, 2, st.Len())
}

func TestChangedTracking(t *testing.T) {
	st := New()
	assert.False(t, st.NeedSaving())
	assert.Empty(t, st.Changed())

	require.NoError(t, st.Set("a", 1))
	assert.True(t, st.NeedSaving())
	assert.ElementsMatch(t, []string{"a"}, st.Changed())

	require.NoError(t, st.Delete("a"))
	assert.ElementsMatch(t, []string{"a"}, st.Changed())
}

func TestReset(t *testing.T) {
	st := New()
	require.NoError(t, st.Set("a", 1))

	st.Reset()
	assert.Equal(t, 0, st.Len())
	assert.False(t, st.NeedSaving())
	assert.Equal(t, "", st.Filename())
	assert.False(t, st.Lazy())
}

func TestShow(t *testing.T) {
	st := New()
	require.NoError(t, st.Set("top", 1))
	require.NoError(t, st.Set("grp.inner", "v"))
	require.NoError(t, st.Set("grp.gone", "x"))
	require.NoError(t, st.Delete("grp.gone"))

	var buf bytes.Buffer
	require.NoError(t, st.Show(&buf))
	out := buf.String()
	assert.Contains(t, out, "top: 1")
	assert.Contains(t, out, "[grp]")
	assert.Contains(t, out, "inner: v")
	assert.NotContains(t, out, "gone")
}

func TestErrorKinds(t *testing.T) {
	st := New()
	_, err := st.Get("missing")

	var serr *Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, ErrKindNotFound, serr.Kind)

	// Sentinels match by kind, not identity.
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)
}

func TestDefaultLifecycle(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	st := Default()
	require.Same(t, st, Default())

	require.NoError(t, st.Set("a", 1))
	ResetDefault()
	assert.Equal(t, 0, Default().Len())
}
