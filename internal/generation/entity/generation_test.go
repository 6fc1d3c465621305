package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupPreset(t *testing.T) {
	tests := []struct {
		name        string
		box, border int
	}{
		{"small", 8, 3},
		{"medium", 10, 4},
		{"large", 12, 5},
		{"mobile", 10, 3},
		{"", 10, 4},
		{" Large ", 12, 5},
	}

	for _, tt := range tests {
		p, err := LookupPreset(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.box, p.BoxSize, tt.name)
		assert.Equal(t, tt.border, p.Border, tt.name)
	}

	_, err := LookupPreset("poster")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "qrcodes/alice/abc.png", ObjectKey("alice", "abc"))
	assert.True(t, KindURL.Valid())
	assert.False(t, Kind("vcard").Valid())
}
