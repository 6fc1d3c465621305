package authz

import (
	"context"
	"testing"

	"github.com/shandysiswandi/ktvs/internal/pkg/pgtest"
	"github.com/shandysiswandi/ktvs/internal/pkg/pgxcasbin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthz(t *testing.T) *Casbin {
	t.Helper()
	a, err := New(nil)
	require.NoError(t, err)
	_, err = a.enforcer.AddPolicy(RoleAdmin, RoleAdmin, "*")
	require.NoError(t, err)
	return a
}

func TestCasbin_GrantAndRevoke(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthz(t)

	ok, err := a.IsPrivileged(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.GrantAdmin(ctx, "alice"))
	require.NoError(t, a.GrantAdmin(ctx, "alice"))

	ok, err = a.IsPrivileged(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, a.RevokeAdmin(ctx, "alice"))
	ok, err = a.IsPrivileged(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCasbin_EmptySubject(t *testing.T) {
	ok, err := newTestAuthz(t).IsPrivileged(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCasbin_PolicyPersistsThroughAdapter(t *testing.T) {
	pool := pgtest.Postgres(t)
	ctx := context.Background()

	a, err := New(pgxcasbin.NewAdapter(pool))
	require.NoError(t, err)
	require.NoError(t, a.GrantAdmin(ctx, "bob"))

	// A second enforcer over the same table sees the grant and the seeded admin policy.
	b, err := New(pgxcasbin.NewAdapter(pool))
	require.NoError(t, err)
	ok, err := b.IsPrivileged(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, b.RevokeAdmin(ctx, "bob"))
	require.NoError(t, a.LoadPolicy())
	ok, err = a.IsPrivileged(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}
