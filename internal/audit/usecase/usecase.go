package usecase

import (
	"context"

	"github.com/shandysiswandi/ktvs/internal/audit/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/uid"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type repoDB interface {
	Insert(ctx context.Context, ev entity.Event) error
	List(ctx context.Context, f entity.Filter, limit int) ([]entity.Event, error)
	Count(ctx context.Context, f entity.Filter) (int64, error)
}

type Usecase struct {
	repoDB repoDB
	uid    uid.NumberID
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	UID        uid.NumberID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB: dep.RepoDB,
		uid:    dep.UID,
		clock:  dep.Clock,
		ins:    dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("audit.usecase").Start(ctx, name)
}

// NewEvent stamps id and timestamp. Stores that write audit rows inside their
// own transaction use it to build the row.
func (s *Usecase) NewEvent(t entity.EventType, target string, act actor.Actor, payload map[string]any) entity.Event {
	return entity.Event{
		ID:        s.uid.Generate(),
		Type:      t,
		Actor:     act,
		Target:    target,
		Payload:   payload,
		Timestamp: s.clock.Now().UTC(),
	}
}
