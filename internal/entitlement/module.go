package entitlement

import (
	"github.com/jackc/pgx/v5/pgxpool"
	auditusecase "github.com/shandysiswandi/ktvs/internal/audit/usecase"
	couponusecase "github.com/shandysiswandi/ktvs/internal/coupon/usecase"
	"github.com/shandysiswandi/ktvs/internal/entitlement/inbound"
	"github.com/shandysiswandi/ktvs/internal/entitlement/outbound/db"
	"github.com/shandysiswandi/ktvs/internal/entitlement/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/authz"
	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/config"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
	"github.com/shandysiswandi/ktvs/internal/pkg/uid"
	"github.com/shandysiswandi/ktvs/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Audit      *auditusecase.Usecase      `validate:"required"`
	Coupons    *couponusecase.Usecase     `validate:"required"`
	Authorizer *authz.Casbin              `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
}

// New registers the subscription endpoints and returns the quota tracker the
// generation module reserves through.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		Coupons:    dep.Coupons,
		Granter:    dep.Authorizer,
		Audit:      dep.Audit,
		UUID:       dep.UUID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Config:     dep.Config,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return uc, nil
}
