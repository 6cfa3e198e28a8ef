package otp

import (
	"bytes"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericGenerate(t *testing.T) {
	t.Parallel()

	g := NewNumeric(0)
	seen := map[string]bool{}
	for range 200 {
		code, err := g.Generate()
		require.NoError(t, err)
		require.Len(t, code, DefaultLength)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9', "non digit in %q", code)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestNumericKeepsLeadingZeros(t *testing.T) {
	t.Parallel()

	code, err := newNumeric(4, bytes.NewReader(make([]byte, 64))).Generate()
	require.NoError(t, err)
	assert.Equal(t, "0000", code)
}

func TestNumericEntropyFailure(t *testing.T) {
	t.Parallel()

	_, err := newNumeric(6, iotest.ErrReader(errors.New("boom"))).Generate()
	assert.ErrorIs(t, err, ErrEntropyUnavailable)
}
