package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	couponentity "github.com/shandysiswandi/ktvs/internal/coupon/entity"
	couponusecase "github.com/shandysiswandi/ktvs/internal/coupon/usecase"
	"github.com/shandysiswandi/ktvs/internal/entitlement/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/config"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/uid"
	"github.com/shandysiswandi/ktvs/internal/pkg/validator"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
	"github.com/shandysiswandi/ktvs/internal/shared/result"
	"go.opentelemetry.io/otel/trace"
)

const defaultStoreTimeout = 5 * time.Second

// Mutator changes a locked subscription and returns the audit events that
// describe the change. Returning no events leaves the row untouched.
type Mutator func(s *entity.Subscription) ([]auditentity.Event, error)

type repoDB interface {
	Ensure(ctx context.Context, sub entity.Subscription) (*entity.Subscription, error)
	Update(ctx context.Context, subjectID string, fn Mutator) (*entity.Subscription, error)
	IncrementUsage(ctx context.Context, subjectID string) (bool, error)
	DecrementUsage(ctx context.Context, subjectID string) error
	AddStorage(ctx context.Context, subjectID string, delta int64) (bool, error)
}

type couponRedeemer interface {
	Redeem(ctx context.Context, in couponusecase.RedeemInput) (*couponusecase.RedeemOutput, error)
	Release(ctx context.Context, in couponusecase.ReleaseInput) error
	NotifyRedeemed(ctx context.Context, subjectID string, t couponentity.Type) result.Result
}

type adminGranter interface {
	GrantAdmin(ctx context.Context, subjectID string) error
}

type auditLog interface {
	NewEvent(t auditentity.EventType, target string, act actor.Actor, payload map[string]any) auditentity.Event
}

type Usecase struct {
	repoDB    repoDB
	coupons   couponRedeemer
	granter   adminGranter
	audit     auditLog
	uuid      uid.StringID
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation

	storeTimeout time.Duration
}

type Dependency struct {
	RepoDB     repoDB
	Coupons    couponRedeemer
	Granter    adminGranter
	Audit      auditLog
	UUID       uid.StringID
	Clock      clock.Clocker
	Validator  validator.Validator
	Config     config.Config
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	uc := &Usecase{
		repoDB:       dep.RepoDB,
		coupons:      dep.Coupons,
		granter:      dep.Granter,
		audit:        dep.Audit,
		uuid:         dep.UUID,
		clock:        dep.Clock,
		validator:    dep.Validator,
		ins:          dep.Instrument,
		storeTimeout: defaultStoreTimeout,
	}

	if cfg := dep.Config; cfg != nil {
		if v := cfg.GetSecond("modules.entitlement.store_timeout"); v > 0 {
			uc.storeTimeout = v
		}
	}

	return uc
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("entitlement.usecase").Start(ctx, name)
}

func (s *Usecase) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// ensure returns the subscription of subjectID, creating a Free one on first
// access and downgrading one whose deferred cancellation has lapsed.
func (s *Usecase) ensure(ctx context.Context, subjectID string) (*entity.Subscription, error) {
	now := s.clock.Now().UTC()

	sub, err := s.repoDB.Ensure(ctx, entity.NewSubscription(s.uuid.Generate(), subjectID, entity.PlanFree, entity.CycleMonthly, now))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo ensure subscription", "subject_id", subjectID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !sub.Lapsed(now) {
		return sub, nil
	}

	sub, err = s.repoDB.Update(ctx, subjectID, func(cur *entity.Subscription) ([]auditentity.Event, error) {
		if !cur.Lapsed(now) {
			return nil, nil
		}
		from := cur.Plan
		cur.ChangePlan(entity.PlanFree, entity.CycleMonthly, now)
		return []auditentity.Event{s.audit.NewEvent(auditentity.EventSubscriptionCancelled, "", actor.System(), map[string]any{
			"subject_id": subjectID,
			"from_plan":  string(from),
			"reason":     "period_end",
		})}, nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo downgrade lapsed subscription", "subject_id", subjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return sub, nil
}

func quotaExceeded(q entity.Quota) error {
	return goerror.NewBusinessWithFields("Generation quota exceeded", goerror.CodeQuotaExceeded,
		"limit", strconv.FormatInt(q.Limit, 10),
		"used", strconv.FormatInt(q.Used, 10),
		"remaining", strconv.FormatInt(q.Remaining, 10),
	)
}
