package usecase

import (
	"context"
	"time"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	credentialentity "github.com/shandysiswandi/ktvs/internal/credential/entity"
	credentialusecase "github.com/shandysiswandi/ktvs/internal/credential/usecase"
	"github.com/shandysiswandi/ktvs/internal/login/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/config"
	"github.com/shandysiswandi/ktvs/internal/pkg/hash"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/jwt"
	"github.com/shandysiswandi/ktvs/internal/pkg/uid"
	"github.com/shandysiswandi/ktvs/internal/pkg/validator"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
	"github.com/shandysiswandi/ktvs/internal/shared/event"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultStoreTimeout  = 5 * time.Second
	defaultNotifyTimeout = 3 * time.Second

	// Sessions outlive the pending window so an expired submission can still
	// be told it expired instead of that the session is unknown.
	sessionTTLSlack = 5 * time.Minute
)

type repoSession interface {
	Create(ctx context.Context, key string, sess entity.PendingSession, ttl time.Duration) error
	Get(ctx context.Context, key string) (*entity.PendingSession, error)
	Transition(ctx context.Context, key string, fn func(*entity.PendingSession) entity.Write) error
}

type repoMessaging interface {
	PublishNotificationIntent(ctx context.Context, msg event.NotificationIntentMessage) error
}

type credentials interface {
	GetBySubject(ctx context.Context, in credentialusecase.GetBySubjectInput) (*credentialentity.Credential, error)
}

type codeVerifier interface {
	Verify(encryptedSecret []byte, code string) bool
}

type auditLog interface {
	Record(ctx context.Context, t auditentity.EventType, act actor.Actor, target string, payload map[string]any) error
}

type Usecase struct {
	repoSession   repoSession
	repoMessaging repoMessaging
	credentials   credentials
	verifier      codeVerifier
	audit         auditLog
	hmac          hash.Hash
	token         uid.StringID
	jwt           jwt.JWT
	clock         clock.Clocker
	validator     validator.Validator
	ins           instrument.Instrumentation

	policy        entity.Policy
	storeTimeout  time.Duration
	notifyTimeout time.Duration
}

type Dependency struct {
	RepoSession   repoSession
	RepoMessaging repoMessaging
	Credentials   credentials
	Verifier      codeVerifier
	Audit         auditLog
	HMAC          hash.Hash
	Token         uid.StringID
	JWT           jwt.JWT
	Clock         clock.Clocker
	Validator     validator.Validator
	Config        config.Config
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	uc := &Usecase{
		repoSession:   dep.RepoSession,
		repoMessaging: dep.RepoMessaging,
		credentials:   dep.Credentials,
		verifier:      dep.Verifier,
		audit:         dep.Audit,
		hmac:          dep.HMAC,
		token:         dep.Token,
		jwt:           dep.JWT,
		clock:         dep.Clock,
		validator:     dep.Validator,
		ins:           dep.Instrument,
		policy:        entity.DefaultPolicy(),
		storeTimeout:  defaultStoreTimeout,
		notifyTimeout: defaultNotifyTimeout,
	}

	if cfg := dep.Config; cfg != nil {
		if v := cfg.GetMinute("login.pending_ttl_minutes"); v > 0 {
			uc.policy.PendingTTL = v
		}
		if v := cfg.GetInt("login.max_attempts"); v > 0 {
			uc.policy.MaxAttempts = v
		}
		if v := cfg.GetSecond("login.lockout_seconds"); v > 0 {
			uc.policy.Lockout = v
		}
		if v := cfg.GetSecond("login.store_timeout"); v > 0 {
			uc.storeTimeout = v
		}
	}

	return uc
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("login.usecase").Start(ctx, name)
}

func (s *Usecase) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// sessionKey keeps raw session tokens out of redis.
func (s *Usecase) sessionKey(token string) (string, error) {
	h, err := s.hmac.Hash(token)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
