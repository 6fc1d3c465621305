package pgxcasbin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRule(t *testing.T) {
	_, err := normalizeRule(nil)
	assert.ErrorIs(t, err, ErrRuleEmpty)

	_, err = normalizeRule(make([]string, 7))
	assert.ErrorIs(t, err, ErrRuleTooLong)

	got, err := normalizeRule([]string{"alice", "admin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "admin", "", "", "", ""}, got)
}

func TestFilter(t *testing.T) {
	where, args, err := filter("g", 1, []string{"", "admin"})
	require.NoError(t, err)
	assert.Equal(t, "ptype = $1 AND v2 = $2", where)
	assert.Equal(t, []any{"g", "admin"}, args)

	_, _, err = filter("g", 4, []string{"a", "b", "c"})
	assert.ErrorIs(t, err, ErrArgsTooLong)
}

func TestTrimTrailingEmpty(t *testing.T) {
	assert.Equal(t, []string{"g", "alice", "admin"}, trimTrailingEmpty([]string{"g", "alice", "admin", "", "", "", ""}))
	assert.Empty(t, trimTrailingEmpty([]string{"", ""}))
}

func TestWithTableName(t *testing.T) {
	a := NewAdapter(nil, WithTableName("AuthzRules"))
	assert.Equal(t, "authz_rules", a.store.table)
}
