package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/ktvs/internal/login/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/pgtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_ConcurrentFailuresAreAllCounted(t *testing.T) {
	client := pgtest.Redis(t)
	ctx := context.Background()
	store := NewSessions(client, instrument.NewNoop())

	t0 := time.Now().UTC()
	require.NoError(t, store.Create(ctx, "k1", entity.PendingSession{SubjectID: "alice", DigitCount: 6, IssuedAt: t0}, time.Minute))
	assert.ErrorIs(t, store.Create(ctx, "k1", entity.PendingSession{}, time.Minute), goerror.ErrConflict)

	policy := entity.Policy{PendingTTL: time.Minute, MaxAttempts: 100, Lockout: time.Second}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Transition(ctx, "k1", func(s *entity.PendingSession) entity.Write {
				return s.Submit(t0.Add(time.Second), false, policy).Write
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.FailedAttempts)

	ttl, err := client.TTL(ctx, keyPrefix+"k1").Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)
}

func TestSessions_DeleteAndMissing(t *testing.T) {
	client := pgtest.Redis(t)
	ctx := context.Background()
	store := NewSessions(client, instrument.NewNoop())

	require.NoError(t, store.Create(ctx, "k2", entity.PendingSession{SubjectID: "bob"}, time.Minute))
	require.NoError(t, store.Transition(ctx, "k2", func(*entity.PendingSession) entity.Write { return entity.WriteDelete }))

	_, err := store.Get(ctx, "k2")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	err = store.Transition(ctx, "k2", func(*entity.PendingSession) entity.Write { return entity.WriteSave })
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}
