package usecase

import (
	"context"
	"log/slog"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	"github.com/shandysiswandi/ktvs/internal/entitlement/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
)

type (
	UpgradeInput struct {
		SubjectID    string              `validate:"required,max=255"`
		Plan         entity.Plan         `validate:"required"`
		BillingCycle entity.BillingCycle `validate:"required"`
		Actor        actor.Actor
	}

	UpgradeOutput struct {
		Subscription    *entity.Subscription
		Price           int64
		Charged         int64
		DiscountPercent int
	}

	CancelInput struct {
		SubjectID string `validate:"required,max=255"`
		Immediate bool
		Actor     actor.Actor
	}
)

// Upgrade moves the subject onto plan for a fresh billing period. A pending
// discount grant is applied to the price and cleared.
func (s *Usecase) Upgrade(ctx context.Context, in UpgradeInput) (*UpgradeOutput, error) {
	ctx, span := s.startSpan(ctx, "Upgrade")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if !in.Plan.Valid() {
		return nil, goerror.NewInvalidInput(nil, "plan", "unknown plan")
	}
	if !in.BillingCycle.Valid() {
		return nil, goerror.NewInvalidInput(nil, "billing_cycle", "must be monthly or yearly")
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	if _, err := s.ensure(sctx, in.SubjectID); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	out := &UpgradeOutput{Price: in.Plan.Spec().Price(in.BillingCycle)}

	sub, err := s.repoDB.Update(sctx, in.SubjectID, func(cur *entity.Subscription) ([]auditentity.Event, error) {
		from := cur.Plan
		cur.ChangePlan(in.Plan, in.BillingCycle, now)
		out.Charged, out.DiscountPercent = cur.TakeDiscount(out.Price)

		return []auditentity.Event{s.audit.NewEvent(auditentity.EventSubscriptionChanged, "", in.Actor, map[string]any{
			"subject_id":       in.SubjectID,
			"from_plan":        string(from),
			"to_plan":          string(in.Plan),
			"billing_cycle":    string(in.BillingCycle),
			"price_cents":      out.Price,
			"charged_cents":    out.Charged,
			"discount_percent": out.DiscountPercent,
		})}, nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo upgrade subscription", "subject_id", in.SubjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out.Subscription = sub
	return out, nil
}

// Cancel downgrades to Free now, or flags the subscription to lapse at the
// end of the current period.
func (s *Usecase) Cancel(ctx context.Context, in CancelInput) (*entity.Subscription, error) {
	ctx, span := s.startSpan(ctx, "Cancel")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	if _, err := s.ensure(sctx, in.SubjectID); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	sub, err := s.repoDB.Update(sctx, in.SubjectID, func(cur *entity.Subscription) ([]auditentity.Event, error) {
		from := cur.Plan
		if in.Immediate {
			cur.ChangePlan(entity.PlanFree, entity.CycleMonthly, now)
		} else {
			cur.CancelAtPeriodEnd = true
			cur.UpdatedAt = now
		}

		return []auditentity.Event{s.audit.NewEvent(auditentity.EventSubscriptionCancelled, "", in.Actor, map[string]any{
			"subject_id": in.SubjectID,
			"from_plan":  string(from),
			"immediate":  in.Immediate,
			"period_end": cur.PeriodEnd,
		})}, nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo cancel subscription", "subject_id", in.SubjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return sub, nil
}
