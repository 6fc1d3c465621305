package usecase

import (
	"context"

	"github.com/shandysiswandi/ktvs/internal/entitlement/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
)

type GetInput struct {
	SubjectID string `validate:"required,max=255"`
}

// Get returns the subscription of a subject. First access creates a Free
// subscription rather than failing.
func (s *Usecase) Get(ctx context.Context, in GetInput) (*entity.Subscription, error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	return s.ensure(sctx, in.SubjectID)
}

// CheckQuota reports whether the subject may generate right now. It is
// advisory; IncrementUsage is what enforces the limit.
func (s *Usecase) CheckQuota(ctx context.Context, in GetInput) (*entity.Quota, error) {
	ctx, span := s.startSpan(ctx, "CheckQuota")
	defer span.End()

	sub, err := s.Get(ctx, in)
	if err != nil {
		return nil, err
	}

	q := sub.Quota()
	return &q, nil
}
