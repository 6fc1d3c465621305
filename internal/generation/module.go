package generation

import (
	"context"

	entitlementusecase "github.com/shandysiswandi/ktvs/internal/entitlement/usecase"
	"github.com/shandysiswandi/ktvs/internal/generation/inbound"
	"github.com/shandysiswandi/ktvs/internal/generation/outbound/db"
	"github.com/shandysiswandi/ktvs/internal/generation/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/config"
	"github.com/shandysiswandi/ktvs/internal/pkg/goroutine"
	"github.com/shandysiswandi/ktvs/internal/pkg/idempotency"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
	"github.com/shandysiswandi/ktvs/internal/pkg/storage"
	"github.com/shandysiswandi/ktvs/internal/pkg/validator"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type Dependency struct {
	Mongo       *mongo.Database             `validate:"required"`
	Storage     storage.Storage             `validate:"required"`
	Router      *router.Router              `validate:"required"`
	Quota       *entitlementusecase.Usecase `validate:"required"`
	Idempotency idempotency.Idempotency     `validate:"required"`
	Goroutine   *goroutine.Manager          `validate:"required"`
	Clock       clock.Clocker               `validate:"required"`
	Validator   validator.Validator         `validate:"required"`
	Config      config.Config               `validate:"required"`
	Instrument  instrument.Instrumentation  `validate:"required"`
}

func New(ctx context.Context, dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repo := db.NewDB(dep.Mongo, dep.Instrument)
	if err := repo.EnsureIndexes(ctx); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:      repo,
		Objects:     dep.Storage,
		Quota:       dep.Quota,
		Idempotency: dep.Idempotency,
		Background:  dep.Goroutine,
		Clock:       dep.Clock,
		Validator:   dep.Validator,
		Config:      dep.Config,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
