package instrument

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledIsNoop(t *testing.T) {
	ins, err := New(context.Background(), &Config{ServiceName: "ktvs-test"})
	require.NoError(t, err)

	_, span := ins.Tracer("test").Start(context.Background(), "op")
	span.End()
	assert.False(t, span.SpanContext().IsValid())
	assert.NoError(t, ins.Shutdown(context.Background()))
}

func TestProvider_ShutdownJoinsErrors(t *testing.T) {
	boom := errors.New("exporter unavailable")
	p := &provider{shutdowns: []func(context.Context) error{
		func(context.Context) error { return nil },
		func(context.Context) error { return boom },
	}}
	assert.ErrorIs(t, p.Shutdown(context.Background()), boom)
}

func TestClampRatio(t *testing.T) {
	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 0.25, clampRatio(0.25))
	assert.Equal(t, 1.0, clampRatio(3))
}
