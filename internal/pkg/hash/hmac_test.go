package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACSHA256(t *testing.T) {
	h := NewHMACSHA256("signing-key")

	sum, err := h.Hash("abc:unlimited-generation:2026-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Len(t, sum, 64)

	t.Run("verify matches", func(t *testing.T) {
		assert.True(t, h.Verify(string(sum), "abc:unlimited-generation:2026-01-01T00:00:00Z"))
	})

	t.Run("edited message fails", func(t *testing.T) {
		assert.False(t, h.Verify(string(sum), "abc:metered-generation:2026-01-01T00:00:00Z"))
	})

	t.Run("other key fails", func(t *testing.T) {
		other := NewHMACSHA256("rotated-key")
		assert.False(t, other.Verify(string(sum), "abc:unlimited-generation:2026-01-01T00:00:00Z"))
	})

	t.Run("deterministic", func(t *testing.T) {
		again, err := h.Hash("abc:unlimited-generation:2026-01-01T00:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, sum, again)
	})
}
