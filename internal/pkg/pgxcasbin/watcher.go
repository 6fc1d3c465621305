package pgxcasbin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

const defaultChannel = "ktvs_casbin_watcher"

// Watcher broadcasts policy changes over a Postgres channel so that other
// replicas reload their enforcer.
type Watcher struct {
	mu       sync.RWMutex
	pool     *pgxpool.Pool
	channel  string
	localID  string
	callback func(string)
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewWatcher starts listening on channel. An empty channel uses the default.
func NewWatcher(ctx context.Context, pool *pgxpool.Pool, channel string) (*Watcher, error) {
	if channel == "" {
		channel = defaultChannel
	}

	lctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		pool:    pool,
		channel: channel,
		localID: uuid.NewString(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	if err := pool.Ping(ctx); err != nil {
		cancel()
		return nil, err
	}

	go w.listen(lctx)
	return w, nil
}

// SetUpdateCallback sets the function invoked when another replica changes policy.
func (w *Watcher) SetUpdateCallback(fn func(string)) error {
	w.mu.Lock()
	w.callback = fn
	w.mu.Unlock()
	return nil
}

// Update notifies other replicas that the policy changed.
func (w *Watcher) Update() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := w.pool.Exec(ctx, "SELECT pg_notify($1, $2)", w.channel, w.localID)
	if err != nil {
		return fmt.Errorf("pgxcasbin: notify: %w", err)
	}
	return nil
}

// Close stops listening and waits for the listener to exit.
func (w *Watcher) Close() {
	w.cancel()
	<-w.done
}

func (w *Watcher) listen(ctx context.Context) {
	defer close(w.done)

	backoff := retry.WithCappedDuration(30*time.Second, retry.NewExponential(500*time.Millisecond))
	_ = retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := w.listenOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		slog.Warn("casbin watcher disconnected, retrying", "channel", w.channel, "error", err)
		return retry.RetryableError(err)
	})
}

func (w *Watcher) listenOnce(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+w.channel); err != nil {
		return err
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if n.Payload == w.localID {
			continue
		}

		w.mu.RLock()
		cb := w.callback
		w.mu.RUnlock()
		if cb != nil {
			cb(n.Payload)
		}
	}
}

// ErrNoEnforcer is returned by ReloadCallback when given a nil enforcer.
var ErrNoEnforcer = errors.New("pgxcasbin: nil enforcer")

// Reloader is the part of an enforcer the watcher callback needs.
type Reloader interface {
	LoadPolicy() error
}

// ReloadCallback returns a watcher callback that reloads the enforcer's policy.
func ReloadCallback(e Reloader) (func(string), error) {
	if e == nil {
		return nil, ErrNoEnforcer
	}
	return func(from string) {
		if err := e.LoadPolicy(); err != nil {
			slog.Error("failed to reload casbin policy", "from", from, "error", err)
		}
	}, nil
}
