package db

import (
	"context"
	"testing"
	"time"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	auditdb "github.com/shandysiswandi/ktvs/internal/audit/outbound/db"
	"github.com/shandysiswandi/ktvs/internal/credential/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/pgtest"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCredential(id, subject string) entity.Credential {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return entity.Credential{
		ID:               id,
		SubjectID:        subject,
		EncryptedSecret:  []byte{1, 2, 3},
		Metadata:         entity.Metadata{Label: "phone", Issuer: "ktvs", DigitCount: 6, PeriodSeconds: 30, Algorithm: "SHA1"},
		KelleyAttributes: map[string]any{"role": "User"},
		SecurityFlags:    entity.DefaultSecurityFlags(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func event(id int64, t auditentity.EventType, target string) auditentity.Event {
	return auditentity.Event{ID: id, Type: t, Actor: actor.New("alice", "", ""), Target: target, Timestamp: time.Now().UTC()}
}

func TestDB_CreateIsUniquePerSubject(t *testing.T) {
	pool := pgtest.Postgres(t)
	ctx := context.Background()
	store := NewDB(pool, instrument.NewNoop())
	audits := auditdb.NewDB(pool, instrument.NewNoop())

	c := newCredential("0196a4f0-0000-7000-8000-000000000001", "alice")
	require.NoError(t, store.Create(ctx, c, event(1, auditentity.EventCredentialCreated, c.ID)))

	dup := newCredential("0196a4f0-0000-7000-8000-000000000002", "alice")
	err := store.Create(ctx, dup, event(2, auditentity.EventCredentialCreated, dup.ID))
	assert.ErrorIs(t, err, goerror.ErrConflict)

	n, err := audits.Count(ctx, auditentity.Filter{EventType: auditentity.EventCredentialCreated})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "the losing insert must not leave an audit row")

	got, err := store.GetBySubject(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.Metadata, got.Metadata)
	assert.Equal(t, []byte{1, 2, 3}, got.EncryptedSecret)

	_, err = store.GetBySubject(ctx, "nobody")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestDB_UpdateAndDelete(t *testing.T) {
	pool := pgtest.Postgres(t)
	ctx := context.Background()
	store := NewDB(pool, instrument.NewNoop())
	audits := auditdb.NewDB(pool, instrument.NewNoop())

	c := newCredential("0196a4f0-0000-7000-8000-000000000003", "bob")
	require.NoError(t, store.Create(ctx, c, event(10, auditentity.EventCredentialCreated, c.ID)))

	updated, err := store.Update(ctx, c.ID, func(cur *entity.Credential) ([]auditentity.Event, error) {
		cur.Is2FARequired = true
		cur.ChangeHistory = append(cur.ChangeHistory, entity.ChangeRecord{
			Timestamp: time.Now().UTC(),
			Actor:     "bob",
			Changes:   map[string]entity.Change{"is_2fa_required": {Old: false, New: true}},
		})
		return []auditentity.Event{event(11, auditentity.EventCredentialModified, cur.ID)}, nil
	})
	require.NoError(t, err)
	assert.True(t, updated.Is2FARequired)

	got, err := store.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.Is2FARequired)
	require.Len(t, got.ChangeHistory, 1)
	assert.Equal(t, "bob", got.ChangeHistory[0].Actor)

	ok, err := store.Delete(ctx, c.ID, event(12, auditentity.EventCredentialDeleted, c.ID))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Delete(ctx, c.ID, event(13, auditentity.EventCredentialDeleted, c.ID))
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := audits.Count(ctx, auditentity.Filter{Target: c.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestDB_Replace(t *testing.T) {
	pool := pgtest.Postgres(t)
	ctx := context.Background()
	store := NewDB(pool, instrument.NewNoop())

	old := newCredential("0196a4f0-0000-7000-8000-000000000004", "carol")
	require.NoError(t, store.Create(ctx, old, event(20, auditentity.EventCredentialCreated, old.ID)))

	fresh := newCredential("0196a4f0-0000-7000-8000-000000000005", "carol")
	require.NoError(t, store.Replace(ctx, old.ID, fresh, []auditentity.Event{
		event(21, auditentity.EventCredentialDeleted, old.ID),
		event(22, auditentity.EventCredentialCreated, fresh.ID),
		event(23, auditentity.EventAdmin2FAReset, fresh.ID),
	}))

	got, err := store.GetBySubject(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, got.ID)

	_, err = store.GetByID(ctx, old.ID)
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}
