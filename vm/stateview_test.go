package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault/keys"
)

func mapReader(m map[string][]byte) ReadThroughFn {
	return func(key string) ([]byte, error) {
		return m[key], nil
	}
}

func TestStateViewSnapshotRevert(t *testing.T) {
	base := map[string][]byte{"a": []byte("1")}
	sv := NewStateView(mapReader(base))

	v, ok, err := sv.Get("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	snap := sv.Snapshot()
	sv.Set("a", []byte("2"))
	sv.Set("b", []byte("x"))
	sv.Del("a")

	_, ok, _ = sv.Get("a")
	assert.False(t, ok)

	require.NoError(t, sv.Revert(snap))
	v, ok, _ = sv.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)
	_, ok, _ = sv.Get("b")
	assert.False(t, ok)
	assert.Empty(t, sv.Diff())

	assert.ErrorIs(t, sv.Revert(99), ErrInvalidSnapshot)
	assert.ErrorIs(t, sv.Revert(-1), ErrInvalidSnapshot)
}

func TestStateViewDiffSortedAndCategorized(t *testing.T) {
	sv := NewStateView(nil)
	sv.Set(keys.KeyVault("V"), []byte("{}"))
	sv.Set(keys.KeyBalance("A"), []byte("5"))
	sv.Del(keys.KeyEvent(1))

	diff := sv.Diff()
	require.Len(t, diff, 3)
	assert.Equal(t, keys.KeyBalance("A"), diff[0].Key)
	assert.Equal(t, "balance", diff[0].Category)
	assert.True(t, diff[1].Del)
	assert.Equal(t, "event", diff[1].Category)
	assert.Equal(t, "vault", diff[2].Category)
}

func TestStateViewCopiesValues(t *testing.T) {
	sv := NewStateView(nil)
	buf := []byte("abc")
	sv.Set("k", buf)
	buf[0] = 'z'

	v, _, _ := sv.Get("k")
	assert.Equal(t, []byte("abc"), v)
	v[0] = 'y'
	again, _, _ := sv.Get("k")
	assert.Equal(t, []byte("abc"), again)
}

func TestSafeMath(t *testing.T) {
	v, err := SafeAdd(math.MaxUint64-1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), v)

	_, err = SafeAdd(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrOverflow)

	v, err = SafeSub(5, 5)
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = SafeSub(4, 5)
	assert.ErrorIs(t, err, ErrUnderflow)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestParseBalance(t *testing.T) {
	v, err := ParseBalance("")
	require.NoError(t, err)
	assert.Zero(t, v)

	v, err = ParseBalance("18446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), v)

	for _, bad := range []string{"-1", "1.5", " 1", "18446744073709551616"} {
		_, err := ParseBalance(bad)
		assert.ErrorIs(t, err, ErrInvalidBalance, bad)
	}
}
