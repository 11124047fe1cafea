package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	id, err := Format(2024, 1)
	require.NoError(t, err)
	assert.Equal(t, "2024001", id)

	id, err = Format(2024, 7)
	require.NoError(t, err)
	assert.Equal(t, "2024007", id)

	id, err = Format(2024, MaxSequence)
	require.NoError(t, err)
	assert.Equal(t, "2024999", id)

	_, err = Format(2024, MaxSequence+1)
	assert.ErrorIs(t, err, ErrExhausted)

	_, err = Format(2024, 0)
	assert.Error(t, err)

	_, err = Format(99, 1)
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	year, seq, err := Parse("2024042")
	require.NoError(t, err)
	assert.Equal(t, 2024, year)
	assert.Equal(t, 42, seq)

	for _, bad := range []string{"", "2024", "20240001", "2024a01", "2024000", "0999001"} {
		_, _, err := Parse(bad)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", bad)
		assert.False(t, Valid(bad))
	}
	assert.True(t, Valid("2031999"))
}
