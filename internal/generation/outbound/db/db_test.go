package db

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/ktvs/internal/generation/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/pgtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_History(t *testing.T) {
	store := NewDB(pgtest.Mongo(t), instrument.NewNoop())
	ctx := context.Background()
	require.NoError(t, store.EnsureIndexes(ctx))

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ids := make([]string, 3)
	for i := range ids {
		ids[i] = store.NewID()
		require.NoError(t, store.Insert(ctx, entity.History{
			ID:        ids[i],
			SubjectID: "alice",
			Kind:      entity.KindURL,
			Content:   "https://example.com",
			Preset:    "medium",
			BoxSize:   10,
			Border:    4,
			ObjectKey: entity.ObjectKey("alice", ids[i]),
			SizeBytes: 512,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.Insert(ctx, entity.History{ID: store.NewID(), SubjectID: "bob", CreatedAt: base}))

	items, err := store.List(ctx, "alice", false, 2, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, ids[2], items[0].ID)
	assert.Equal(t, ids[1], items[1].ID)

	n, err := store.Count(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	fav, err := store.ToggleFavorite(ctx, ids[0], "alice")
	require.NoError(t, err)
	assert.True(t, fav)

	favs, err := store.List(ctx, "alice", true, 10, 0)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, ids[0], favs[0].ID)

	fav, err = store.ToggleFavorite(ctx, ids[0], "alice")
	require.NoError(t, err)
	assert.False(t, fav)

	_, err = store.ToggleFavorite(ctx, ids[0], "bob")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
	_, err = store.ToggleFavorite(ctx, "not-an-id", "alice")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	gone, err := store.Delete(ctx, ids[1], "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(512), gone.SizeBytes)
	assert.Equal(t, entity.ObjectKey("alice", ids[1]), gone.ObjectKey)

	_, err = store.Delete(ctx, ids[1], "alice")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}
