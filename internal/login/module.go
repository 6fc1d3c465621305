package login

import (
	"github.com/redis/go-redis/v9"
	auditusecase "github.com/shandysiswandi/ktvs/internal/audit/usecase"
	credentialusecase "github.com/shandysiswandi/ktvs/internal/credential/usecase"
	"github.com/shandysiswandi/ktvs/internal/login/inbound"
	"github.com/shandysiswandi/ktvs/internal/login/outbound/cache"
	"github.com/shandysiswandi/ktvs/internal/login/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/config"
	"github.com/shandysiswandi/ktvs/internal/pkg/hash"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/jwt"
	"github.com/shandysiswandi/ktvs/internal/pkg/messaging"
	"github.com/shandysiswandi/ktvs/internal/pkg/otp"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
	"github.com/shandysiswandi/ktvs/internal/pkg/uid"
	"github.com/shandysiswandi/ktvs/internal/pkg/validator"
	"github.com/shandysiswandi/ktvs/internal/shared/event"
)

type Dependency struct {
	Redis       redis.UniversalClient      `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Audit       *auditusecase.Usecase      `validate:"required"`
	Credentials *credentialusecase.Usecase `validate:"required"`
	Verifier    *otp.Verifier              `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	JWT         jwt.JWT                    `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	HookSecret  []byte
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoSession:   cache.NewSessions(dep.Redis, dep.Instrument),
		RepoMessaging: event.NewPublisher(dep.Messaging, dep.Instrument, "login.outbound.mq"),
		Credentials:   dep.Credentials,
		Verifier:      dep.Verifier,
		Audit:         dep.Audit,
		HMAC:          dep.HMAC,
		Token:         uid.NewURLToken(32),
		JWT:           dep.JWT,
		Clock:         dep.Clock,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.HookSecret)

	return nil
}
