package credential

import (
	"github.com/jackc/pgx/v5/pgxpool"
	auditusecase "github.com/shandysiswandi/ktvs/internal/audit/usecase"
	"github.com/shandysiswandi/ktvs/internal/credential/inbound"
	"github.com/shandysiswandi/ktvs/internal/credential/outbound/db"
	"github.com/shandysiswandi/ktvs/internal/credential/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/authz"
	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/config"
	"github.com/shandysiswandi/ktvs/internal/pkg/envelope"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/messaging"
	"github.com/shandysiswandi/ktvs/internal/pkg/otp"
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
	Encryptor  envelope.Encryptor         `validate:"required"`
	Totp       otp.OTP                    `validate:"required"`
	Verifier   *otp.Verifier              `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	HookSecret []byte
}

// New registers the credential endpoints and returns the store for the
// login flow to read credentials through.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoMessaging: event.NewPublisher(dep.Messaging, dep.Instrument, "credential.outbound.mq"),
		Audit:         dep.Audit,
		Authorizer:    dep.Authorizer,
		Encryptor:     dep.Encryptor,
		Totp:          dep.Totp,
		Verifier:      dep.Verifier,
		UUID:          dep.UUID,
		Clock:         dep.Clock,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.HookSecret)

	return uc, nil
}
