package usecase

import (
	"context"
	"log/slog"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	couponentity "github.com/shandysiswandi/ktvs/internal/coupon/entity"
	couponusecase "github.com/shandysiswandi/ktvs/internal/coupon/usecase"
	"github.com/shandysiswandi/ktvs/internal/entitlement/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
	"github.com/shandysiswandi/ktvs/internal/shared/result"
)

type (
	ApplyCouponInput struct {
		Code      string `validate:"required,max=64"`
		SubjectID string `validate:"required,max=255"`
		Actor     actor.Actor
	}

	ApplyCouponOutput struct {
		Subscription *entity.Subscription
		Type         couponentity.Type
		Value        *int
		Result       result.Result
	}
)

// ApplyCoupon redeems code for the subject and folds the grant into its
// subscription. When the grant fails the redemption is released again, so a
// coupon is never left consumed without its grant.
func (s *Usecase) ApplyCoupon(ctx context.Context, in ApplyCouponInput) (*ApplyCouponOutput, error) {
	ctx, span := s.startSpan(ctx, "ApplyCoupon")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	if _, err := s.ensure(sctx, in.SubjectID); err != nil {
		return nil, err
	}

	redeemed, err := s.coupons.Redeem(ctx, couponusecase.RedeemInput{
		Code:      in.Code,
		SubjectID: in.SubjectID,
		Actor:     in.Actor,
	})
	if err != nil {
		return nil, err
	}

	sub, err := s.grant(ctx, in, redeemed)
	if err != nil {
		s.release(ctx, in, err)
		return nil, goerror.NewServer(err)
	}

	return &ApplyCouponOutput{
		Subscription: sub,
		Type:         redeemed.Type,
		Value:        redeemed.Value,
		Result:       s.coupons.NotifyRedeemed(ctx, in.SubjectID, redeemed.Type),
	}, nil
}

func (s *Usecase) grant(ctx context.Context, in ApplyCouponInput, redeemed *couponusecase.RedeemOutput) (*entity.Subscription, error) {
	if redeemed.Type == couponentity.TypeAdminElevation {
		if err := s.granter.GrantAdmin(ctx, in.SubjectID); err != nil {
			slog.ErrorContext(ctx, "failed to grant admin role", "subject_id", in.SubjectID, "error", err)
			return nil, err
		}
	}

	value := entity.GrantValue(redeemed.Type, redeemed.Value)
	now := s.clock.Now().UTC()

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	sub, err := s.repoDB.Update(sctx, in.SubjectID, func(cur *entity.Subscription) ([]auditentity.Event, error) {
		if err := cur.ApplyGrant(redeemed.Type, value, now); err != nil {
			return nil, err
		}

		return []auditentity.Event{s.audit.NewEvent(auditentity.EventSubscriptionChanged, "", in.Actor, map[string]any{
			"subject_id":           in.SubjectID,
			"source":               "coupon",
			"coupon_type":          string(redeemed.Type),
			"value":                value,
			"generation_limit":     cur.GenerationLimit,
			"unlimited_generation": cur.UnlimitedGeneration,
		})}, nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo apply coupon grant", "subject_id", in.SubjectID, "type", redeemed.Type, "error", err)
		return nil, err
	}

	return sub, nil
}

// release hands the coupon back after a failed grant. A failed release is
// logged for manual repair; the grant error is what the caller sees.
func (s *Usecase) release(ctx context.Context, in ApplyCouponInput, cause error) {
	err := s.coupons.Release(context.WithoutCancel(ctx), couponusecase.ReleaseInput{
		Code:      in.Code,
		SubjectID: in.SubjectID,
		Reason:    cause.Error(),
		Actor:     in.Actor,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to release coupon after grant failure", "subject_id", in.SubjectID, "error", err)
	}
}
