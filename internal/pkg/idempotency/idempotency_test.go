package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/ktvs/internal/pkg/pgtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTracker(t *testing.T) {
	client := pgtest.Redis(t)
	s := New(client)
	ctx := context.Background()

	t.Run("runs once and replays the result", func(t *testing.T) {
		calls := 0
		fn := func(context.Context) (string, error) {
			calls++
			return `{"history_id":"h1"}`, nil
		}

		first, err := s.Exec(ctx, "qrcodes:alice:k1", fn)
		require.NoError(t, err)
		second, err := s.Exec(ctx, "qrcodes:alice:k1", fn)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, calls)
	})

	t.Run("in progress key is rejected", func(t *testing.T) {
		state, _, err := s.Acquire(ctx, "qrcodes:alice:k2", time.Minute)
		require.NoError(t, err)
		require.Equal(t, StateNone, state)

		_, err = s.Exec(ctx, "qrcodes:alice:k2", func(context.Context) (string, error) { return "x", nil })
		assert.ErrorIs(t, err, ErrAlreadyInProgress)
	})

	t.Run("failure releases the key", func(t *testing.T) {
		boom := errors.New("render failed")
		_, err := s.Exec(ctx, "qrcodes:alice:k3", func(context.Context) (string, error) { return "", boom })
		require.ErrorIs(t, err, boom)

		out, err := s.Exec(ctx, "qrcodes:alice:k3", func(context.Context) (string, error) { return "ok", nil })
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
	})

	t.Run("release keeps a completed result", func(t *testing.T) {
		require.NoError(t, s.Complete(ctx, "qrcodes:alice:k4", "done", time.Minute))
		require.NoError(t, s.Release(ctx, "qrcodes:alice:k4"))

		state, result, err := s.Acquire(ctx, "qrcodes:alice:k4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, StateCompleted, state)
		assert.Equal(t, "done", result)
	})

	t.Run("foreign value is invalid", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, keyPrefix+"qrcodes:alice:k5", "garbage", time.Minute).Err())
		_, _, err := s.Acquire(ctx, "qrcodes:alice:k5", time.Minute)
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}
