package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/ktvs/internal/audit/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
)

// ErrUnknownEventType is returned when recording a type outside the catalogue.
var ErrUnknownEventType = errors.New("audit: unknown event type")

// Record appends an event. Transient store errors are retried with bounded
// exponential backoff; the final error is returned to the caller.
func (s *Usecase) Record(ctx context.Context, t entity.EventType, act actor.Actor, target string, payload map[string]any) error {
	ctx, span := s.startSpan(ctx, "Record")
	defer span.End()

	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, t)
	}

	ev := s.NewEvent(t, target, act, payload)

	backoff := retry.WithMaxRetries(3, retry.NewExponential(25*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.repoDB.Insert(ctx, ev)
		if errors.Is(err, goerror.ErrRetryable) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to record audit event", "event_type", t.String(), "target", target, "error", err)
		return err
	}

	return nil
}
