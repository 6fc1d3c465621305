package usecase

import (
	"context"
	"errors"
	"log/slog"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	"github.com/shandysiswandi/ktvs/internal/credential/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
	"github.com/shandysiswandi/ktvs/internal/shared/event"
	"github.com/shandysiswandi/ktvs/internal/shared/result"
)

type (
	AdminResetInput struct {
		SubjectID string `validate:"required,max=255"`
		Actor     actor.Actor
	}

	AdminResetOutput struct {
		Credential *entity.Credential
		Result     result.Result
	}
)

// AdminReset2FA replaces the subject's credential with a freshly seeded one
// carrying default attributes, then tells the subject. The replacement and
// its audit events commit together; the notification is best effort.
func (s *Usecase) AdminReset2FA(ctx context.Context, in AdminResetInput) (*AdminResetOutput, error) {
	ctx, span := s.startSpan(ctx, "AdminReset2FA")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.requirePrivileged(ctx, in.Actor); err != nil {
		return nil, err
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	var oldID, label string
	old, err := s.repoDB.GetBySubject(sctx, in.SubjectID)
	switch {
	case errors.Is(err, goerror.ErrNotFound):
	case err != nil:
		slog.ErrorContext(ctx, "failed to repo get credential by subject", "subject_id", in.SubjectID, "error", err)
		return nil, goerror.NewServer(err)
	default:
		oldID = old.ID
		label = old.Metadata.Label
	}

	secret, _, err := s.totp.Generate(accountName(in.SubjectID, label))
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp seed", "subject_id", in.SubjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	cred, err := s.newCredential(in.SubjectID, secret, entity.Metadata{Label: label}, nil, entity.DefaultSecurityFlags())
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt credential secret", "subject_id", in.SubjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	events := make([]auditentity.Event, 0, 3)
	if oldID != "" {
		events = append(events, s.audit.NewEvent(auditentity.EventCredentialDeleted, oldID, in.Actor, map[string]any{
			"subject_id": in.SubjectID,
			"reason":     "admin_reset",
		}))
	}
	events = append(events,
		s.audit.NewEvent(auditentity.EventCredentialCreated, cred.ID, in.Actor, map[string]any{
			"subject_id": in.SubjectID,
			"label":      cred.Metadata.Label,
		}),
		s.audit.NewEvent(auditentity.EventAdmin2FAReset, cred.ID, in.Actor, map[string]any{
			"reset_for_user": in.SubjectID,
		}),
	)

	if err := s.repoDB.Replace(sctx, oldID, cred, events); err != nil {
		slog.ErrorContext(ctx, "failed to repo replace credential", "subject_id", in.SubjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &AdminResetOutput{
		Credential: &cred,
		Result:     s.notifyReset(ctx, in.SubjectID),
	}, nil
}

func (s *Usecase) notifyReset(ctx context.Context, subjectID string) result.Result {
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	err := s.repoMessaging.PublishNotificationIntent(ctx, event.NotificationIntentMessage{
		EventType: auditentity.EventAdmin2FAReset.String(),
		Recipient: subjectID,
		Subject:   "Your two-factor authentication was reset",
		Body:      "An administrator reset your authenticator. Enrol the new code at your next sign-in.",
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish reset notification", "subject_id", subjectID, "error", err)
		return result.SideEffectFailed("notification not sent: " + err.Error())
	}

	return result.CoreOperationSucceeded()
}
