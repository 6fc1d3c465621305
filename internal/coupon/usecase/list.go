package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/ktvs/internal/coupon/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
)

type ListInput struct {
	OnlyUnconsumed bool
	Limit          int `validate:"gte=0"`
	Actor          actor.Actor
}

// List returns coupons newest first for administrators.
func (s *Usecase) List(ctx context.Context, in ListInput) ([]entity.Coupon, error) {
	ctx, span := s.startSpan(ctx, "List")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.requirePrivileged(ctx, in.Actor); err != nil {
		return nil, err
	}

	limit := in.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	coupons, err := s.repoDB.List(sctx, in.OnlyUnconsumed, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list coupons", "error", err)
		return nil, goerror.NewServer(err)
	}

	return coupons, nil
}
