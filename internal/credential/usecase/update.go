package usecase

import (
	"context"
	"errors"
	"log/slog"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	"github.com/shandysiswandi/ktvs/internal/credential/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
)

// Fields a subject may change on its own credential. Everything else needs
// an administrator.
var ownerFields = map[entity.UpdateField]struct{}{
	entity.FieldLabel:       {},
	entity.Field2FARequired: {},
}

type (
	UpdateInput struct {
		SubjectID string `validate:"required,max=255"`
		Changes   []entity.UpdateCommand
		Actor     actor.Actor
	}

	PatchInput struct {
		SubjectID string         `validate:"required,max=255"`
		Fields    map[string]any `validate:"required,min=1,max=7"`
		Actor     actor.Actor
	}

	Toggle2FAInput struct {
		Actor actor.Actor
	}
)

// Update applies changes, appends a history entry and records
// CREDENTIAL_MODIFIED in one transaction. Changes that leave every value as
// it was write nothing.
func (s *Usecase) Update(ctx context.Context, in UpdateInput) (*entity.Credential, error) {
	ctx, span := s.startSpan(ctx, "Update")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.mutate(ctx, in.SubjectID, in.Actor, func(c *entity.Credential) ([]entity.UpdateCommand, []auditentity.Event) {
		return in.Changes, nil
	})
}

// Patch parses dotted-path field updates from a client and applies them
// through Update.
func (s *Usecase) Patch(ctx context.Context, in PatchInput) (*entity.Credential, error) {
	ctx, span := s.startSpan(ctx, "Patch")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cmds := make([]entity.UpdateCommand, 0, len(in.Fields))
	needsAdmin := in.SubjectID != in.Actor.SubjectID
	for path, value := range in.Fields {
		cmd, err := entity.ParseUpdateCommand(path, value)
		if err != nil {
			return nil, goerror.NewInvalidInput(nil, path, err.Error())
		}
		if _, ok := ownerFields[cmd.Field]; !ok {
			needsAdmin = true
		}
		cmds = append(cmds, cmd)
	}

	if needsAdmin {
		if err := s.requirePrivileged(ctx, in.Actor); err != nil {
			return nil, err
		}
	}

	return s.Update(ctx, UpdateInput{SubjectID: in.SubjectID, Changes: cmds, Actor: in.Actor})
}

// Toggle2FA flips is_2fa_required on the caller's credential and returns the
// new value.
func (s *Usecase) Toggle2FA(ctx context.Context, in Toggle2FAInput) (bool, error) {
	ctx, span := s.startSpan(ctx, "Toggle2FA")
	defer span.End()

	if in.Actor.SubjectID == "" {
		return false, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	cred, err := s.mutate(ctx, in.Actor.SubjectID, in.Actor, func(c *entity.Credential) ([]entity.UpdateCommand, []auditentity.Event) {
		enabled := !c.Is2FARequired
		cmd := entity.UpdateCommand{Field: entity.Field2FARequired, Value: enabled}
		ev := s.audit.NewEvent(auditentity.Event2FAStatusChanged, c.ID, in.Actor, map[string]any{
			"is_2fa_required": enabled,
		})
		return []entity.UpdateCommand{cmd}, []auditentity.Event{ev}
	})
	if err != nil {
		return false, err
	}

	return cred.Is2FARequired, nil
}

type planFunc func(c *entity.Credential) ([]entity.UpdateCommand, []auditentity.Event)

// mutate runs plan against the locked row so that commands derived from the
// current state, such as a toggle, cannot lose a concurrent write.
func (s *Usecase) mutate(ctx context.Context, subjectID string, act actor.Actor, plan planFunc) (*entity.Credential, error) {
	cred, err := s.getBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	updated, err := s.repoDB.Update(sctx, cred.ID, func(c *entity.Credential) ([]auditentity.Event, error) {
		cmds, extra := plan(c)

		changes := c.Apply(cmds)
		if len(changes) == 0 {
			return nil, nil
		}

		now := s.clock.Now().UTC()
		c.ChangeHistory = append(c.ChangeHistory, entity.ChangeRecord{
			Timestamp: now,
			Actor:     act.SubjectID,
			Changes:   changes,
		})
		c.UpdatedAt = now

		modified := s.audit.NewEvent(auditentity.EventCredentialModified, c.ID, act, map[string]any{
			"changes": changes,
		})

		return append([]auditentity.Event{modified}, extra...), nil
	})
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("credential not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update credential", "credential_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return updated, nil
}
