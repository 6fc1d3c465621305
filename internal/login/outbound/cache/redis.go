package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/ktvs/internal/login/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyPrefix = "login:pending:"

// Sessions stores pending 2FA sessions in redis. Transitions run under
// WATCH/MULTI so concurrent submissions on one session serialise.
type Sessions struct {
	client  redis.UniversalClient
	ins     instrument.Instrumentation
	backoff func() retry.Backoff
}

func NewSessions(client redis.UniversalClient, ins instrument.Instrumentation) *Sessions {
	return &Sessions{
		client: client,
		ins:    ins,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(8, retry.WithJitter(5*time.Millisecond, retry.NewExponential(10*time.Millisecond)))
		},
	}
}

func (s *Sessions) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("login.outbound.cache").Start(ctx, name)
}

func (s *Sessions) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Create stores a new session. An existing key is a conflict.
func (s *Sessions) Create(ctx context.Context, key string, sess entity.PendingSession, ttl time.Duration) (err error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer func() { s.endSpan(span, err) }()

	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, keyPrefix+key, raw, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return goerror.ErrConflict
	}

	return nil
}

func (s *Sessions) Get(ctx context.Context, key string) (_ *entity.PendingSession, err error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer func() { s.endSpan(span, err) }()

	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess entity.PendingSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}

	return &sess, nil
}

// Transition loads the session, lets fn change it and applies the write fn
// asks for. fn may run more than once when another writer wins the race, so
// it must not have side effects.
func (s *Sessions) Transition(ctx context.Context, key string, fn func(*entity.PendingSession) entity.Write) (err error) {
	ctx, span := s.startSpan(ctx, "Transition")
	defer func() { s.endSpan(span, err) }()

	fk := keyPrefix + key
	attempt := func(ctx context.Context) error {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, fk).Bytes()
			if errors.Is(err, redis.Nil) {
				return goerror.ErrNotFound
			}
			if err != nil {
				return err
			}

			var sess entity.PendingSession
			if err := json.Unmarshal(raw, &sess); err != nil {
				return err
			}

			write := fn(&sess)
			if write == entity.WriteNone {
				return nil
			}

			next, err := json.Marshal(sess)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if write == entity.WriteDelete {
					pipe.Del(ctx, fk)
				} else {
					pipe.Set(ctx, fk, next, redis.KeepTTL)
				}
				return nil
			})
			return err
		}, fk)

		if errors.Is(err, redis.TxFailedErr) {
			return retry.RetryableError(err)
		}
		return err
	}

	if err := retry.Do(ctx, s.backoff(), attempt); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return errors.Join(goerror.ErrRetryable, err)
		}
		return err
	}

	return nil
}
