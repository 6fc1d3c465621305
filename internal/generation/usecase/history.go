package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
)

type (
	ListInput struct {
		SubjectID     string `validate:"required,max=255"`
		OnlyFavorites bool
		Limit         int `validate:"gte=0"`
		Offset        int `validate:"gte=0"`
	}

	HistoryItem struct {
		ID         string
		Kind       string
		Content    string
		Foreground string
		Background string
		Preset     string
		BoxSize    int
		Border     int
		SizeBytes  int64
		IsFavorite bool
		URL        string
		CreatedAt  time.Time
	}

	ListOutput struct {
		Items []HistoryItem
		Total int64
	}

	EntryInput struct {
		ID        string `validate:"required,max=64"`
		SubjectID string `validate:"required,max=255"`
	}
)

func errHistoryNotFound() error {
	return goerror.NewBusiness("history entry not found", goerror.CodeNotFound)
}

func (s *Usecase) ListHistory(ctx context.Context, in ListInput) (*ListOutput, error) {
	ctx, span := s.startSpan(ctx, "ListHistory")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	limit := in.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	entries, err := s.repoDB.List(sctx, in.SubjectID, in.OnlyFavorites, int64(limit), int64(in.Offset))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list history", "subject_id", in.SubjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	total, err := s.repoDB.Count(sctx, in.SubjectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count history", "subject_id", in.SubjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &ListOutput{Items: make([]HistoryItem, 0, len(entries)), Total: total}
	for _, h := range entries {
		out.Items = append(out.Items, HistoryItem{
			ID:         h.ID,
			Kind:       string(h.Kind),
			Content:    h.Content,
			Foreground: h.Foreground,
			Background: h.Background,
			Preset:     h.Preset,
			BoxSize:    h.BoxSize,
			Border:     h.Border,
			SizeBytes:  h.SizeBytes,
			IsFavorite: h.IsFavorite,
			URL:        s.signedURL(ctx, h.ObjectKey),
			CreatedAt:  h.CreatedAt,
		})
	}

	return out, nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *Usecase) ToggleFavorite(ctx context.Context, in EntryInput) (bool, error) {
	ctx, span := s.startSpan(ctx, "ToggleFavorite")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return false, goerror.NewInvalidInput(err)
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	fav, err := s.repoDB.ToggleFavorite(sctx, in.ID, in.SubjectID)
	if errors.Is(err, goerror.ErrNotFound) {
		return false, errHistoryNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo toggle favorite", "id", in.ID, "error", err)
		return false, goerror.NewServer(err)
	}

	return fav, nil
}

// DeleteHistory removes an entry, gives its generation and storage back to
// the quota and deletes the image in the background.
func (s *Usecase) DeleteHistory(ctx context.Context, in EntryInput) error {
	ctx, span := s.startSpan(ctx, "DeleteHistory")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	h, err := s.repoDB.Delete(sctx, in.ID, in.SubjectID)
	if errors.Is(err, goerror.ErrNotFound) {
		return errHistoryNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete history", "id", in.ID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.quota.DecrementUsage(ctx, in.SubjectID); err != nil {
		slog.ErrorContext(ctx, "failed to release generation", "subject_id", in.SubjectID, "error", err)
	}
	if h.SizeBytes > 0 {
		if err := s.quota.ReleaseStorage(ctx, in.SubjectID, h.SizeBytes); err != nil {
			slog.ErrorContext(ctx, "failed to release storage", "subject_id", in.SubjectID, "error", err)
		}
	}
	if h.ObjectKey != "" {
		s.removeObject(ctx, h.ObjectKey)
	}

	return nil
}
