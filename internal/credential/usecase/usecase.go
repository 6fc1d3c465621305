package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	"github.com/shandysiswandi/ktvs/internal/credential/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/config"
	"github.com/shandysiswandi/ktvs/internal/pkg/envelope"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/otp"
	"github.com/shandysiswandi/ktvs/internal/pkg/uid"
	"github.com/shandysiswandi/ktvs/internal/pkg/validator"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
	"github.com/shandysiswandi/ktvs/internal/shared/event"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultStoreTimeout  = 5 * time.Second
	defaultNotifyTimeout = 3 * time.Second
	defaultRole          = "User"
	defaultFunction      = "General"
	totpAlgorithm        = "SHA1"
)

// Mutator changes a locked credential and returns the audit events that
// describe the change. Returning no events leaves the row untouched.
type Mutator func(c *entity.Credential) ([]auditentity.Event, error)

type repoDB interface {
	Create(ctx context.Context, cred entity.Credential, ev auditentity.Event) error
	GetBySubject(ctx context.Context, subjectID string) (*entity.Credential, error)
	GetByID(ctx context.Context, id string) (*entity.Credential, error)
	Update(ctx context.Context, id string, fn Mutator) (*entity.Credential, error)
	Delete(ctx context.Context, id string, ev auditentity.Event) (bool, error)
	Replace(ctx context.Context, oldID string, cred entity.Credential, events []auditentity.Event) error
}

type repoMessaging interface {
	PublishNotificationIntent(ctx context.Context, msg event.NotificationIntentMessage) error
}

type auditLog interface {
	NewEvent(t auditentity.EventType, target string, act actor.Actor, payload map[string]any) auditentity.Event
	Record(ctx context.Context, t auditentity.EventType, act actor.Actor, target string, payload map[string]any) error
}

type authorizer interface {
	IsPrivileged(ctx context.Context, subjectID string) (bool, error)
}

type codeSource interface {
	CurrentCode(encryptedSecret []byte) (string, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	audit         auditLog
	authz         authorizer
	encryptor     envelope.Encryptor
	totp          otp.OTP
	codes         codeSource
	uuid          uid.StringID
	clock         clock.Clocker
	validator     validator.Validator
	ins           instrument.Instrumentation

	issuer        string
	role          string
	function      string
	storeTimeout  time.Duration
	notifyTimeout time.Duration
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Audit         auditLog
	Authorizer    authorizer
	Encryptor     envelope.Encryptor
	Totp          otp.OTP
	Verifier      codeSource
	UUID          uid.StringID
	Clock         clock.Clocker
	Validator     validator.Validator
	Config        config.Config
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	uc := &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		audit:         dep.Audit,
		authz:         dep.Authorizer,
		encryptor:     dep.Encryptor,
		totp:          dep.Totp,
		codes:         dep.Verifier,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		validator:     dep.Validator,
		ins:           dep.Instrument,
		role:          defaultRole,
		function:      defaultFunction,
		storeTimeout:  defaultStoreTimeout,
		notifyTimeout: defaultNotifyTimeout,
	}

	if cfg := dep.Config; cfg != nil {
		uc.issuer = cfg.GetString("otp.issuer")
		if v := cfg.GetString("modules.credential.default_role"); v != "" {
			uc.role = v
		}
		if v := cfg.GetString("modules.credential.default_function"); v != "" {
			uc.function = v
		}
		if v := cfg.GetSecond("modules.credential.store_timeout"); v > 0 {
			uc.storeTimeout = v
		}
		if v := cfg.GetSecond("modules.credential.notify_timeout"); v > 0 {
			uc.notifyTimeout = v
		}
	}

	return uc
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("credential.usecase").Start(ctx, name)
}

func (s *Usecase) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *Usecase) requirePrivileged(ctx context.Context, act actor.Actor) error {
	if act.SubjectID == "" {
		return goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	ok, err := s.authz.IsPrivileged(ctx, act.SubjectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check privilege", "subject_id", act.SubjectID, "error", err)
		return goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "privileged operation refused", "subject_id", act.SubjectID)
		return goerror.NewBusiness("Insufficient privileges", goerror.CodeForbidden)
	}

	return nil
}

func (s *Usecase) defaultAttributes() map[string]any {
	return map[string]any{"role": s.role, "function": s.function}
}

// checkParams rejects code parameters the verifier cannot honour. Zero values
// take the configured defaults.
func (s *Usecase) checkParams(md entity.Metadata) error {
	if md.DigitCount != 0 && md.DigitCount != s.totp.Digits() {
		return goerror.NewInvalidInput(nil, "digit_count", "must be "+strconv.Itoa(s.totp.Digits()))
	}
	if md.PeriodSeconds != 0 && md.PeriodSeconds != int(s.totp.Period()) {
		return goerror.NewInvalidInput(nil, "period_seconds", "must be "+strconv.FormatUint(uint64(s.totp.Period()), 10))
	}
	if md.Algorithm != "" && !strings.EqualFold(md.Algorithm, totpAlgorithm) {
		return goerror.NewInvalidInput(nil, "algorithm", "must be "+totpAlgorithm)
	}
	return nil
}

// newCredential encrypts secret and fills the defaults of a fresh credential.
func (s *Usecase) newCredential(subjectID, secret string, md entity.Metadata, attrs map[string]any, flags entity.SecurityFlags) (entity.Credential, error) {
	blob, err := s.encryptor.Encrypt([]byte(secret))
	if err != nil {
		return entity.Credential{}, err
	}

	if md.Issuer == "" {
		md.Issuer = s.issuer
	}
	if md.DigitCount == 0 {
		md.DigitCount = s.totp.Digits()
	}
	if md.PeriodSeconds == 0 {
		md.PeriodSeconds = int(s.totp.Period())
	}
	if md.Algorithm == "" {
		md.Algorithm = totpAlgorithm
	}

	merged := s.defaultAttributes()
	for k, v := range attrs {
		merged[k] = v
	}

	if flags.RevocationState == "" {
		flags.RevocationState = entity.RevocationActive
	}

	now := s.clock.Now().UTC()
	cred := entity.Credential{
		ID:               s.uuid.Generate(),
		SubjectID:        subjectID,
		EncryptedSecret:  blob,
		Metadata:         md,
		KelleyAttributes: merged,
		SecurityFlags:    flags,
		ChangeHistory:    []entity.ChangeRecord{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	cred.ApplySeal()

	return cred, nil
}

func (s *Usecase) getBySubject(ctx context.Context, subjectID string) (*entity.Credential, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	cred, err := s.repoDB.GetBySubject(ctx, subjectID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("credential not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get credential by subject", "subject_id", subjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return cred, nil
}
