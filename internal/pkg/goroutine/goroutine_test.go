package goroutine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CollectsErrors(t *testing.T) {
	m := NewManager(4)
	boom := errors.New("boom")

	require.True(t, m.Go(context.Background(), func(context.Context) error { return nil }))
	require.True(t, m.Go(context.Background(), func(context.Context) error { return boom }))

	err := m.Wait()
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, m.InFlight())
}

func TestManager_DropsWhenFull(t *testing.T) {
	m := NewManager(1)
	release := make(chan struct{})
	started := make(chan struct{})

	require.True(t, m.Go(context.Background(), func(context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))
	assert.Equal(t, int64(1), m.Dropped())

	close(release)
	require.NoError(t, m.Wait())
}

func TestManager_ClosedAfterWait(t *testing.T) {
	m := NewManager(1)
	require.NoError(t, m.Wait())
	assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))
}

func TestManager_RecoversPanic(t *testing.T) {
	m := NewManager(1)
	require.True(t, m.Go(context.Background(), func(context.Context) error { panic("bad") }))
	assert.NoError(t, m.Wait())
}
