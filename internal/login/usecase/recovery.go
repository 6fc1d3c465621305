package usecase

import (
	"context"
	"log/slog"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
	"github.com/shandysiswandi/ktvs/internal/shared/event"
	"github.com/shandysiswandi/ktvs/internal/shared/result"
)

type RecoveryInput struct {
	Username string `validate:"required_without=Email,max=255"`
	Email    string `validate:"omitempty,email,max=255"`
	Reason   string `validate:"max=1000"`
	Actor    actor.Actor
}

// RequestRecovery files an account recovery request for the administrators.
// It answers the same way whether or not the account exists.
func (s *Usecase) RequestRecovery(ctx context.Context, in RecoveryInput) (result.Result, error) {
	ctx, span := s.startSpan(ctx, "RequestRecovery")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return result.Result{}, goerror.NewInvalidInput(err)
	}

	if err := s.record(ctx, auditentity.EventAccountRecoveryRequest, in.Actor, auditentity.TargetSystem, map[string]any{
		"username": in.Username,
		"email":    in.Email,
		"reason":   in.Reason,
	}); err != nil {
		return result.Result{}, err
	}

	nctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	err := s.repoMessaging.PublishNotificationIntent(nctx, event.NotificationIntentMessage{
		EventType: auditentity.EventAccountRecoveryRequest.String(),
		Recipient: event.RecipientAdministrators,
		Subject:   "Account recovery requested",
		Body:      "A user asked for help regaining access to their account. Review the request in the audit log.",
		Data: map[string]string{
			"username":       in.Username,
			"email":          in.Email,
			"reason":         in.Reason,
			"origin_address": in.Actor.OriginAddress,
		},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish recovery notification", "error", err)
		return result.SideEffectFailed("notification not sent: " + err.Error()), nil
	}

	return result.CoreOperationSucceeded(), nil
}
