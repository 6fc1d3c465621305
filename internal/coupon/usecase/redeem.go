package usecase

import (
	"context"
	"errors"
	"log/slog"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	"github.com/shandysiswandi/ktvs/internal/coupon/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
	"github.com/shandysiswandi/ktvs/internal/shared/event"
	"github.com/shandysiswandi/ktvs/internal/shared/result"
)

type (
	RedeemInput struct {
		Code      string `validate:"required,max=64"`
		SubjectID string `validate:"required,max=255"`
		Actor     actor.Actor
	}

	RedeemOutput struct {
		Type  entity.Type
		Value *int
	}

	ReleaseInput struct {
		Code      string `validate:"required,max=64"`
		SubjectID string `validate:"required,max=255"`
		Reason    string
		Actor     actor.Actor
	}
)

func errInvalidCoupon() error {
	return goerror.NewBusiness("invalid coupon", goerror.CodeNotFound)
}

// Redeem validates and consumes a coupon for subjectID. Consumption and the
// COUPON_REDEEMED event commit together; of two concurrent redemptions of a
// single-use coupon exactly one succeeds. The caller sends the redemption
// notice with NotifyRedeemed once the grant is in place.
func (s *Usecase) Redeem(ctx context.Context, in RedeemInput) (*RedeemOutput, error) {
	ctx, span := s.startSpan(ctx, "Redeem")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	c, err := s.repoDB.Get(sctx, in.Code)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, errInvalidCoupon()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get coupon", "code_prefix", codePrefix(in.Code), "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.signer.Verify(c.Signature, c.SigningPayload()) {
		instrument.Security(ctx, "coupon signature mismatch",
			"code_prefix", codePrefix(c.Code),
			"subject_id", in.SubjectID,
			"origin_address", in.Actor.OriginAddress,
		)
		return nil, errInvalidCoupon()
	}

	now := s.clock.Now().UTC()
	if c.Expired(now) {
		return nil, goerror.NewBusiness("coupon expired", goerror.CodeExpired)
	}

	reusable := c.Type.Reusable()
	if c.IsConsumed && !reusable {
		return nil, goerror.NewBusiness("coupon already redeemed", goerror.CodeConflict)
	}

	ev := s.audit.NewEvent(auditentity.EventCouponRedeemed, "", in.Actor, map[string]any{
		"code_prefix": codePrefix(c.Code),
		"type":        string(c.Type),
		"value":       c.Value,
		"redeemed_by": in.SubjectID,
	})

	err = s.repoDB.Consume(sctx, c.Code, in.SubjectID, now, reusable, ev)
	if errors.Is(err, goerror.ErrConflict) {
		return nil, goerror.NewBusiness("coupon already redeemed", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume coupon", "code_prefix", codePrefix(c.Code), "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RedeemOutput{Type: c.Type, Value: c.Value}, nil
}

// Release undoes a redemption by subjectID whose grant could not be applied,
// so the coupon can be redeemed again. Reusable coupons were never consumed
// and only get the reverting event.
func (s *Usecase) Release(ctx context.Context, in ReleaseInput) error {
	ctx, span := s.startSpan(ctx, "Release")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	c, err := s.repoDB.Get(sctx, in.Code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get coupon", "code_prefix", codePrefix(in.Code), "error", err)
		return goerror.NewServer(err)
	}

	ev := s.audit.NewEvent(auditentity.EventCouponRedeemed, "", in.Actor, map[string]any{
		"code_prefix": codePrefix(c.Code),
		"type":        string(c.Type),
		"redeemed_by": in.SubjectID,
		"reverted":    true,
		"reason":      in.Reason,
	})

	if err := s.repoDB.Release(sctx, c.Code, in.SubjectID, c.Type.Reusable(), ev); err != nil {
		slog.ErrorContext(ctx, "failed to repo release coupon", "code_prefix", codePrefix(c.Code), "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// NotifyRedeemed tells subjectID its coupon was applied. A broker failure is
// reported in the result and never raised.
func (s *Usecase) NotifyRedeemed(ctx context.Context, subjectID string, t entity.Type) result.Result {
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	err := s.repoMessaging.PublishNotificationIntent(ctx, event.NotificationIntentMessage{
		EventType: auditentity.EventCouponRedeemed.String(),
		Recipient: subjectID,
		Subject:   "Coupon applied",
		Body:      "Your " + string(t) + " coupon has been applied to your subscription.",
		Data:      map[string]string{"type": string(t)},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish redemption notification", "subject_id", subjectID, "error", err)
		return result.SideEffectFailed("notification not sent: " + err.Error())
	}

	return result.CoreOperationSucceeded()
}
