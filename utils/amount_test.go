package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSOL(t *testing.T) {
	assert.Equal(t, "0.001", FormatSOL(1_000_000))
	assert.Equal(t, "1", FormatSOL(LamportsPerSOL))
	assert.Equal(t, "0", FormatSOL(0))
}

func TestParseSOL(t *testing.T) {
	v, err := ParseSOL("0.5")
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), v)

	v, err = ParseSOL("2")
	require.NoError(t, err)
	assert.Equal(t, uint64(2*LamportsPerSOL), v)

	for _, bad := range []string{"-1", "0.0000000001", "abc", "100000000000"} {
		_, err := ParseSOL(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestParseSOLMax(t *testing.T) {
	v, err := ParseSOL(FormatSOL(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), v)
}

func TestShortFingerprint(t *testing.T) {
	assert.Len(t, ShortFingerprint("batch"), 16)
	assert.Equal(t, ShortFingerprint("batch"), ShortFingerprint("batch"))
	assert.NotEqual(t, ShortFingerprint("a"), ShortFingerprint("b"))
	assert.Len(t, DigestHex([]byte("x")), 64)
}
