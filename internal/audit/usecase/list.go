package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/ktvs/internal/audit/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
)

type ListInput struct {
	Filter entity.Filter
	Limit  int
}

type ListOutput struct {
	Events []entity.Event
	Total  int64
}

// List returns events newest first together with the total matching count.
func (s *Usecase) List(ctx context.Context, in ListInput) (*ListOutput, error) {
	ctx, span := s.startSpan(ctx, "List")
	defer span.End()

	if in.Filter.EventType != "" && !in.Filter.EventType.Valid() {
		return nil, goerror.NewInvalidInput(nil, "event_type", "event_type is not a known audit event type")
	}

	limit := in.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}

	events, err := s.repoDB.List(ctx, in.Filter, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list audit events", "error", err)
		return nil, goerror.NewServer(err)
	}

	total, err := s.repoDB.Count(ctx, in.Filter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count audit events", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListOutput{Events: events, Total: total}, nil
}

// Count returns the number of matching events.
func (s *Usecase) Count(ctx context.Context, f entity.Filter) (int64, error) {
	ctx, span := s.startSpan(ctx, "Count")
	defer span.End()

	n, err := s.repoDB.Count(ctx, f)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count audit events", "error", err)
		return 0, goerror.NewServer(err)
	}
	return n, nil
}
