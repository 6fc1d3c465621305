package coupon

import (
	"github.com/jackc/pgx/v5/pgxpool"
	auditusecase "github.com/shandysiswandi/ktvs/internal/audit/usecase"
	"github.com/shandysiswandi/ktvs/internal/coupon/inbound"
	"github.com/shandysiswandi/ktvs/internal/coupon/outbound/db"
	"github.com/shandysiswandi/ktvs/internal/coupon/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/authz"
	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/config"
	"github.com/shandysiswandi/ktvs/internal/pkg/hash"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/messaging"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
	"github.com/shandysiswandi/ktvs/internal/pkg/uid"
	"github.com/shandysiswandi/ktvs/internal/pkg/validator"
	"github.com/shandysiswandi/ktvs/internal/shared/event"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Audit      *auditusecase.Usecase      `validate:"required"`
	Authorizer *authz.Casbin              `validate:"required"`
	Signer     hash.Hash                  `validate:"required"`
	Codes      uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
}

// New registers the admin coupon endpoints and returns the usecase the
// entitlement module redeems through.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoMessaging: event.NewPublisher(dep.Messaging, dep.Instrument, "coupon.outbound.mq"),
		Audit:         dep.Audit,
		Authorizer:    dep.Authorizer,
		Signer:        dep.Signer,
		Codes:         dep.Codes,
		Clock:         dep.Clock,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return uc, nil
}
