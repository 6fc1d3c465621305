package usecase

import (
	"context"
	"log/slog"
	"time"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	"github.com/shandysiswandi/ktvs/internal/coupon/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
)

type (
	IssueInput struct {
		Type         entity.Type `validate:"required"`
		Value        *int        `validate:"omitempty,gte=1,lte=1000000"`
		ValidityDays int         `validate:"required,gte=1,lte=3650"`
		Actor        actor.Actor
	}

	IssueOutput struct {
		Code      string
		Signature string
		Type      entity.Type
		Value     *int
		ExpiresAt time.Time
	}
)

// Issue mints a signed coupon. Only administrators may issue.
func (s *Usecase) Issue(ctx context.Context, in IssueInput) (*IssueOutput, error) {
	ctx, span := s.startSpan(ctx, "Issue")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if !in.Type.Valid() {
		return nil, goerror.NewInvalidInput(nil, "type", "unknown coupon type")
	}
	if in.Type.NeedsValue() && in.Value == nil {
		return nil, goerror.NewInvalidInput(nil, "value", "value is required for "+string(in.Type))
	}
	if in.Type == entity.TypeDiscount && *in.Value > 100 {
		return nil, goerror.NewInvalidInput(nil, "value", "discount must be between 1 and 100 percent")
	}

	if err := s.requirePrivileged(ctx, in.Actor); err != nil {
		return nil, err
	}

	value := in.Value
	if value == nil && in.Type == entity.TypeMeteredGeneration {
		v := entity.DefaultMeteredValue
		value = &v
	}

	now := s.clock.Now().UTC().Truncate(time.Second)
	c := entity.Coupon{
		Code:      s.codes.Generate(),
		Type:      in.Type,
		Value:     value,
		ExpiresAt: now.AddDate(0, 0, in.ValidityDays),
		CreatedAt: now,
		Issuer:    in.Actor.SubjectID,
	}

	sig, err := s.signer.Hash(c.SigningPayload())
	if err != nil {
		slog.ErrorContext(ctx, "failed to sign coupon", "error", err)
		return nil, goerror.NewServer(err)
	}
	c.Signature = string(sig)

	ev := s.audit.NewEvent(auditentity.EventCouponIssued, "", in.Actor, map[string]any{
		"code_prefix": codePrefix(c.Code),
		"type":        string(c.Type),
		"value":       c.Value,
		"expires_at":  c.ExpiresAt,
	})

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.repoDB.Insert(sctx, c, ev); err != nil {
		slog.ErrorContext(ctx, "failed to repo insert coupon", "code_prefix", codePrefix(c.Code), "error", err)
		return nil, goerror.NewServer(err)
	}

	return &IssueOutput{
		Code:      c.Code,
		Signature: c.Signature,
		Type:      c.Type,
		Value:     c.Value,
		ExpiresAt: c.ExpiresAt,
	}, nil
}
