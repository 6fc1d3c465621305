package usecase

import (
	"context"
	"log/slog"
	"time"

	credentialentity "github.com/shandysiswandi/ktvs/internal/credential/entity"
	credentialusecase "github.com/shandysiswandi/ktvs/internal/credential/usecase"
	"github.com/shandysiswandi/ktvs/internal/login/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
)

const (
	StatusAuthenticated = "authenticated"
	StatusPending2FA    = "2fa_required"
)

type (
	BeginInput struct {
		SubjectID string `validate:"required,max=255"`
		Actor     actor.Actor
	}

	BeginOutput struct {
		Status       string
		AccessToken  string
		SessionToken string
		ExpiresAt    time.Time
		Digits       int
	}
)

// Begin starts a login for a subject whose password the identity provider
// has already verified.
func (s *Usecase) Begin(ctx context.Context, in BeginInput) (*BeginOutput, error) {
	ctx, span := s.startSpan(ctx, "Begin")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cred, err := s.credentials.GetBySubject(ctx, credentialusecase.GetBySubjectInput{SubjectID: in.SubjectID})
	if goerror.IsCode(err, goerror.CodeNotFound) {
		return s.authenticated(ctx, in.SubjectID, "pwd")
	}
	if err != nil {
		return nil, err
	}

	if cred.SecurityFlags.RevocationState != credentialentity.RevocationActive {
		slog.WarnContext(ctx, "login refused for inactive credential", "subject_id", in.SubjectID, "state", cred.SecurityFlags.RevocationState)
		return nil, goerror.NewBusiness("credential is "+string(cred.SecurityFlags.RevocationState), goerror.CodeForbidden)
	}

	if !cred.Is2FARequired {
		return s.authenticated(ctx, in.SubjectID, "pwd")
	}

	token := s.token.Generate()
	key, err := s.sessionKey(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to derive session key", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now().UTC()
	sess := entity.PendingSession{
		SubjectID:    in.SubjectID,
		CredentialID: cred.ID,
		DigitCount:   cred.Metadata.DigitCount,
		IssuedAt:     now,
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	ttl := s.policy.PendingTTL + s.policy.Lockout + sessionTTLSlack
	if err := s.repoSession.Create(sctx, key, sess, ttl); err != nil {
		slog.ErrorContext(ctx, "failed to repo create pending session", "subject_id", in.SubjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &BeginOutput{
		Status:       StatusPending2FA,
		SessionToken: token,
		ExpiresAt:    now.Add(s.policy.PendingTTL),
		Digits:       sess.DigitCount,
	}, nil
}

func (s *Usecase) authenticated(ctx context.Context, subjectID string, methods ...string) (*BeginOutput, error) {
	token, err := s.jwt.Generate(subjectID, methods...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "subject_id", subjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &BeginOutput{Status: StatusAuthenticated, AccessToken: token}, nil
}
