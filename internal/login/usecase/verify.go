package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	credentialusecase "github.com/shandysiswandi/ktvs/internal/credential/usecase"
	"github.com/shandysiswandi/ktvs/internal/login/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
)

var errSessionNotFound = goerror.NewBusiness("login session not found, sign in again", goerror.CodeUnauthorized)

type (
	VerifyInput struct {
		SessionToken string `validate:"required,max=128"`
		Code         string `validate:"required,max=16"`
		Actor        actor.Actor
	}

	VerifyOutput struct {
		AccessToken string
	}
)

// Verify completes a pending login with a TOTP code.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	key, err := s.sessionKey(in.SessionToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to derive session key", "error", err)
		return nil, goerror.NewServer(err)
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	sess, err := s.repoSession.Get(sctx, key)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, errSessionNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get pending session", "error", err)
		return nil, goerror.NewServer(err)
	}

	// an expired session is closed whatever shape the code has
	expired := sess.Expired(s.clock.Now(), s.policy)
	if !expired && !entity.WellFormed(in.Code, sess.DigitCount) {
		return nil, goerror.NewInvalidInput(nil, "code", fmt.Sprintf("code must be exactly %d digits", sess.DigitCount))
	}

	valid := false
	if !expired {
		cred, err := s.credentials.GetBySubject(ctx, credentialusecase.GetBySubjectInput{SubjectID: sess.SubjectID})
		switch {
		case goerror.IsCode(err, goerror.CodeNotFound):
			// deleted mid-login: every code fails
		case err != nil:
			return nil, err
		case cred.ID == sess.CredentialID:
			valid = s.verifier.Verify(cred.EncryptedSecret, in.Code)
		}
	}

	var d entity.Decision
	err = s.repoSession.Transition(sctx, key, func(cur *entity.PendingSession) entity.Write {
		d = cur.Submit(s.clock.Now(), valid, s.policy)
		return d.Write
	})
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, errSessionNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo transition pending session", "subject_id", sess.SubjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.conclude(ctx, sess, d, in.Actor)
}

func (s *Usecase) conclude(ctx context.Context, sess *entity.PendingSession, d entity.Decision, act actor.Actor) (*VerifyOutput, error) {
	act.SubjectID = sess.SubjectID

	switch d.Outcome {
	case entity.OutcomeAuthenticated:
		if err := s.record(ctx, auditentity.Event2FASuccess, act, sess.CredentialID, nil); err != nil {
			return nil, err
		}
		out, err := s.authenticated(ctx, sess.SubjectID, "pwd", "otp")
		if err != nil {
			return nil, err
		}
		return &VerifyOutput{AccessToken: out.AccessToken}, nil

	case entity.OutcomeInvalidCode:
		if err := s.record(ctx, auditentity.Event2FAFailed, act, sess.CredentialID, map[string]any{
			"attempt_number": d.Attempt,
		}); err != nil {
			return nil, err
		}
		return nil, goerror.NewBusinessWithFields(
			fmt.Sprintf("Invalid code. %d attempt(s) remaining", d.Remaining),
			goerror.CodeUnauthorized,
			"attempts_remaining", fmt.Sprint(d.Remaining),
		)

	case entity.OutcomeLockedOut:
		slog.WarnContext(ctx, "pending login locked out", "subject_id", sess.SubjectID, "attempts", d.Attempt)
		if err := s.record(ctx, auditentity.Event2FAFailed, act, sess.CredentialID, map[string]any{
			"attempt_number": d.Attempt,
		}); err != nil {
			return nil, err
		}
		if err := s.record(ctx, auditentity.Event2FALockout, act, sess.CredentialID, map[string]any{
			"lockout_seconds": d.RetryAfterSeconds(),
		}); err != nil {
			return nil, err
		}
		return nil, lockedOut(d)

	case entity.OutcomeStillLocked:
		return nil, lockedOut(d)

	default:
		return nil, goerror.NewBusiness("login session expired, sign in again", goerror.CodeExpired)
	}
}

func (s *Usecase) record(ctx context.Context, t auditentity.EventType, act actor.Actor, target string, payload map[string]any) error {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.audit.Record(ctx, t, act, target, payload); err != nil {
		return goerror.NewServer(err)
	}
	return nil
}

func lockedOut(d entity.Decision) error {
	secs := d.RetryAfterSeconds()
	return goerror.NewBusinessWithFields(
		fmt.Sprintf("Too many failed attempts. Try again in %d seconds", secs),
		goerror.CodeTooManyRequest,
		"retry_after_seconds", fmt.Sprint(secs),
	)
}
