package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
)

// IncrementUsage takes one generation from the subject's quota. The limit is
// checked by the same statement that increments, so N concurrent callers with
// K generations left produce exactly K successes.
func (s *Usecase) IncrementUsage(ctx context.Context, subjectID string) error {
	ctx, span := s.startSpan(ctx, "IncrementUsage")
	defer span.End()

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	if _, err := s.ensure(sctx, subjectID); err != nil {
		return err
	}

	ok, err := s.repoDB.IncrementUsage(sctx, subjectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo increment usage", "subject_id", subjectID, "error", err)
		return goerror.NewServer(err)
	}
	if ok {
		return nil
	}

	sub, err := s.ensure(sctx, subjectID)
	if err != nil {
		return err
	}

	return quotaExceeded(sub.Quota())
}

// DecrementUsage returns one generation to the quota. The counter never
// drops below zero.
func (s *Usecase) DecrementUsage(ctx context.Context, subjectID string) error {
	ctx, span := s.startSpan(ctx, "DecrementUsage")
	defer span.End()

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.repoDB.DecrementUsage(sctx, subjectID); err != nil {
		slog.ErrorContext(ctx, "failed to repo decrement usage", "subject_id", subjectID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// ReserveStorage accounts size bytes against the storage limit.
func (s *Usecase) ReserveStorage(ctx context.Context, subjectID string, size int64) error {
	ctx, span := s.startSpan(ctx, "ReserveStorage")
	defer span.End()

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	if _, err := s.ensure(sctx, subjectID); err != nil {
		return err
	}

	ok, err := s.repoDB.AddStorage(sctx, subjectID, size)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo reserve storage", "subject_id", subjectID, "error", err)
		return goerror.NewServer(err)
	}
	if !ok {
		return goerror.NewBusiness("Storage quota exceeded", goerror.CodeQuotaExceeded)
	}

	return nil
}

func (s *Usecase) ReleaseStorage(ctx context.Context, subjectID string, size int64) error {
	ctx, span := s.startSpan(ctx, "ReleaseStorage")
	defer span.End()

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	if _, err := s.repoDB.AddStorage(sctx, subjectID, -size); err != nil {
		slog.ErrorContext(ctx, "failed to repo release storage", "subject_id", subjectID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
