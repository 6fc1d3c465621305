// Package mongodb connects to MongoDB and maps driver errors onto goerror.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var ErrConnect = errors.New("mongodb: failed to connect")

type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	RetryAttempts  int
	RetryInterval  time.Duration
}

// Connect dials MongoDB, retrying until a ping succeeds or the attempts run
// out, and returns the configured database.
func Connect(ctx context.Context, cfg Config) (*mongo.Database, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetRetryWrites(true).
		SetRetryReads(true)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = time.Second
	}
	backoff := retry.WithMaxRetries(uint64(max(cfg.RetryAttempts-1, 0)), retry.NewConstant(interval))

	var db *mongo.Database
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		client, err := mongo.Connect(opts)
		if err != nil {
			return retry.RetryableError(err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return retry.RetryableError(err)
		}
		db = client.Database(cfg.Database)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	return db, nil
}

// MapError converts driver errors into the goerror sentinels.
func MapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return goerror.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return goerror.ErrConflict
	case mongo.IsTimeout(err), mongo.IsNetworkError(err):
		return errors.Join(goerror.ErrRetryable, err)
	default:
		return err
	}
}
