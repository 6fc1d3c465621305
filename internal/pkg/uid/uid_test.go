package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID_Generate(t *testing.T) {
	id, err := uuid.Parse(NewUUID().Generate())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestSnowflake_Monotonic(t *testing.T) {
	sf, err := NewSnowflake(1)
	require.NoError(t, err)

	prev := sf.Generate()
	for range 1000 {
		next := sf.Generate()
		require.Greater(t, next, prev)
		prev = next
	}

	_, err = NewSnowflake(4096)
	assert.Error(t, err)
}

func TestURLToken_Generate(t *testing.T) {
	g := NewURLToken(16)
	seen := map[string]struct{}{}
	for range 100 {
		tok := g.Generate()
		assert.Len(t, tok, 22)
		assert.NotContains(t, tok, "=")
		_, dup := seen[tok]
		require.False(t, dup)
		seen[tok] = struct{}{}
	}
}
