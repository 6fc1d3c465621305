package usecase

import (
	"context"
	"errors"
	"log/slog"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
)

type DeleteInput struct {
	ID    string `validate:"required,uuid"`
	Actor actor.Actor
}

// Delete removes a credential and records CREDENTIAL_DELETED. It reports
// false when there was nothing to delete.
func (s *Usecase) Delete(ctx context.Context, in DeleteInput) (bool, error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return false, goerror.NewInvalidInput(err)
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	cred, err := s.repoDB.GetByID(sctx, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get credential by id", "credential_id", in.ID, "error", err)
		return false, goerror.NewServer(err)
	}

	if cred.SubjectID != in.Actor.SubjectID {
		if err := s.requirePrivileged(ctx, in.Actor); err != nil {
			return false, err
		}
	}

	ev := s.audit.NewEvent(auditentity.EventCredentialDeleted, cred.ID, in.Actor, map[string]any{
		"subject_id": cred.SubjectID,
	})

	deleted, err := s.repoDB.Delete(sctx, cred.ID, ev)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete credential", "credential_id", cred.ID, "error", err)
		return false, goerror.NewServer(err)
	}

	return deleted, nil
}
