package usecase

import (
	"context"
	"io"
	"time"

	"github.com/shandysiswandi/ktvs/internal/generation/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/config"
	"github.com/shandysiswandi/ktvs/internal/pkg/idempotency"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/storage"
	"github.com/shandysiswandi/ktvs/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultStoreTimeout = 5 * time.Second
	defaultURLExpiry    = 15 * time.Minute
	defaultListLimit    = 50
	maxListLimit        = 200
)

type repoDB interface {
	NewID() string
	Insert(ctx context.Context, h entity.History) error
	List(ctx context.Context, subjectID string, onlyFavorites bool, limit, offset int64) ([]entity.History, error)
	Count(ctx context.Context, subjectID string) (int64, error)
	ToggleFavorite(ctx context.Context, id, subjectID string) (bool, error)
	Delete(ctx context.Context, id, subjectID string) (*entity.History, error)
}

type objectStore interface {
	Put(ctx context.Context, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type quota interface {
	IncrementUsage(ctx context.Context, subjectID string) error
	DecrementUsage(ctx context.Context, subjectID string) error
	ReserveStorage(ctx context.Context, subjectID string, size int64) error
	ReleaseStorage(ctx context.Context, subjectID string, size int64) error
}

type background interface {
	Go(ctx context.Context, f func(ctx context.Context) error) bool
}

type Usecase struct {
	repoDB    repoDB
	objects   objectStore
	quota     quota
	idem      idempotency.Idempotency
	bg        background
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation

	storeTimeout time.Duration
	urlExpiry    time.Duration
}

type Dependency struct {
	RepoDB      repoDB
	Objects     objectStore
	Quota       quota
	Idempotency idempotency.Idempotency
	Background  background
	Clock       clock.Clocker
	Validator   validator.Validator
	Config      config.Config
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	uc := &Usecase{
		repoDB:       dep.RepoDB,
		objects:      dep.Objects,
		quota:        dep.Quota,
		idem:         dep.Idempotency,
		bg:           dep.Background,
		clock:        dep.Clock,
		validator:    dep.Validator,
		ins:          dep.Instrument,
		storeTimeout: defaultStoreTimeout,
		urlExpiry:    defaultURLExpiry,
	}

	if cfg := dep.Config; cfg != nil {
		if v := cfg.GetSecond("modules.generation.store_timeout"); v > 0 {
			uc.storeTimeout = v
		}
		if v := cfg.GetMinute("storage.url_expiry_minutes"); v > 0 {
			uc.urlExpiry = v
		}
	}

	return uc
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("generation.usecase").Start(ctx, name)
}

func (s *Usecase) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}
