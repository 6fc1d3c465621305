package audit

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/ktvs/internal/audit/inbound"
	"github.com/shandysiswandi/ktvs/internal/audit/outbound/db"
	"github.com/shandysiswandi/ktvs/internal/audit/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
	"github.com/shandysiswandi/ktvs/internal/pkg/uid"
	"github.com/shandysiswandi/ktvs/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

// New registers the audit endpoints and returns the log for the other modules
// to record through.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		UID:        dep.UID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return uc, nil
}
