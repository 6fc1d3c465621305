// Package idempotency deduplicates retried requests in Redis. A completed
// operation remembers its result so a retry with the same key receives the
// original answer instead of running again.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrAlreadyInProgress is returned while another request holds the key.
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	ErrInvalidState      = errors.New("idempotency: invalid state")
)

type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

const (
	keyPrefix = "idempotency:"
	sep       = "|"

	defaultLockDuration = time.Minute
	defaultStateTTL     = 24 * time.Hour
)

// Idempotency runs fn at most once per key within the state TTL.
type Idempotency interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, string, error)
	Complete(ctx context.Context, key, result string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
	Exec(ctx context.Context, key string, fn func(context.Context) (string, error), opts ...Option) (string, error)
}

// releaseScript deletes the key only while it is still in progress, so a
// late release never erases a stored result.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// StateTracker needs Redis 7 or newer for SET NX GET.
type StateTracker struct {
	client redis.UniversalClient
}

func New(client redis.UniversalClient) *StateTracker {
	return &StateTracker{client: client}
}

type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration bounds how long an in-progress marker survives a crashed worker.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long a completed result is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

// Acquire marks key in progress in one round trip. StateNone means the caller
// now owns the key; StateCompleted comes with the stored result.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, string, error) {
	prev, err := s.client.SetArgs(ctx, keyPrefix+key, string(StateInProgress), redis.SetArgs{
		Mode: "NX",
		Get:  true,
		TTL:  lockDuration,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return StateNone, "", nil
	}
	if err != nil {
		return StateNone, "", fmt.Errorf("idempotency: acquire: %w", err)
	}

	state, result, _ := strings.Cut(prev, sep)
	switch State(state) {
	case StateInProgress:
		return StateInProgress, "", nil
	case StateCompleted:
		return StateCompleted, result, nil
	default:
		return StateNone, "", ErrInvalidState
	}
}

func (s *StateTracker) Complete(ctx context.Context, key, result string, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+key, string(StateCompleted)+sep+result, ttl).Err(); err != nil {
		return fmt.Errorf("idempotency: complete: %w", err)
	}
	return nil
}

// Release forgets an in-progress key so the caller may retry after a failure.
func (s *StateTracker) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{keyPrefix + key}, string(StateInProgress)).Err(); err != nil {
		return fmt.Errorf("idempotency: release: %w", err)
	}
	return nil
}

// Exec runs fn once per key. A failed fn releases the key; a successful one
// stores its result, which later calls with the same key return unchanged.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) (string, error), opts ...Option) (string, error) {
	o := execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, stored, err := s.Acquire(ctx, key, o.lockDuration)
	switch {
	case err != nil:
		return "", err
	case state == StateInProgress:
		return "", ErrAlreadyInProgress
	case state == StateCompleted:
		return stored, nil
	}

	result, err := fn(ctx)
	if err != nil {
		if relErr := s.Release(context.WithoutCancel(ctx), key); relErr != nil {
			return "", errors.Join(err, relErr)
		}
		return "", err
	}

	if err := s.Complete(ctx, key, result, o.stateTTL); err != nil {
		return "", err
	}
	return result, nil
}
