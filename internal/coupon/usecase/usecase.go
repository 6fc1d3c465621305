package usecase

import (
	"context"
	"log/slog"
	"time"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	"github.com/shandysiswandi/ktvs/internal/coupon/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/config"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/hash"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/uid"
	"github.com/shandysiswandi/ktvs/internal/pkg/validator"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
	"github.com/shandysiswandi/ktvs/internal/shared/event"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultStoreTimeout  = 5 * time.Second
	defaultNotifyTimeout = 3 * time.Second
	defaultListLimit     = 50
	maxListLimit         = 500
)

type repoDB interface {
	Insert(ctx context.Context, c entity.Coupon, ev auditentity.Event) error
	Get(ctx context.Context, code string) (*entity.Coupon, error)
	Consume(ctx context.Context, code, subjectID string, at time.Time, reusable bool, ev auditentity.Event) error
	Release(ctx context.Context, code, subjectID string, reusable bool, ev auditentity.Event) error
	List(ctx context.Context, onlyUnconsumed bool, limit int) ([]entity.Coupon, error)
}

type repoMessaging interface {
	PublishNotificationIntent(ctx context.Context, msg event.NotificationIntentMessage) error
}

type auditLog interface {
	NewEvent(t auditentity.EventType, target string, act actor.Actor, payload map[string]any) auditentity.Event
}

type authorizer interface {
	IsPrivileged(ctx context.Context, subjectID string) (bool, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	audit         auditLog
	authz         authorizer
	signer        hash.Hash
	codes         uid.StringID
	clock         clock.Clocker
	validator     validator.Validator
	ins           instrument.Instrumentation

	storeTimeout  time.Duration
	notifyTimeout time.Duration
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Audit         auditLog
	Authorizer    authorizer
	Signer        hash.Hash
	Codes         uid.StringID
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
		signer:        dep.Signer,
		codes:         dep.Codes,
		clock:         dep.Clock,
		validator:     dep.Validator,
		ins:           dep.Instrument,
		storeTimeout:  defaultStoreTimeout,
		notifyTimeout: defaultNotifyTimeout,
	}

	if cfg := dep.Config; cfg != nil {
		if v := cfg.GetSecond("modules.coupon.store_timeout"); v > 0 {
			uc.storeTimeout = v
		}
	}

	return uc
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("coupon.usecase").Start(ctx, name)
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
		return goerror.NewBusiness("Insufficient privileges", goerror.CodeForbidden)
	}

	return nil
}

// codePrefix identifies a coupon in logs and audit payloads without
// disclosing the redeemable code.
func codePrefix(code string) string {
	if len(code) <= 6 {
		return code
	}
	return code[:6]
}
