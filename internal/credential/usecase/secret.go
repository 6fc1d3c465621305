package usecase

import (
	"context"
	"log/slog"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	"github.com/shandysiswandi/ktvs/internal/credential/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
)

const (
	purposeDecrypt     = "decrypt"
	purposeExport      = "export"
	purposeCurrentCode = "current_code"
)

type (
	ExportSeedInput struct {
		Actor actor.Actor
	}

	ExportSeedOutput struct {
		Seed string
		URI  string
	}

	CurrentCodeInput struct {
		SubjectID string `validate:"required,max=255"`
		Actor     actor.Actor
	}
)

// DecryptSecret opens the credential's secret. SECRET_VIEWED is recorded
// first and nothing is decrypted if that write fails.
func (s *Usecase) DecryptSecret(ctx context.Context, cred *entity.Credential, act actor.Actor) ([]byte, error) {
	ctx, span := s.startSpan(ctx, "DecryptSecret")
	defer span.End()

	return s.decrypt(ctx, cred, act, purposeDecrypt)
}

func (s *Usecase) decrypt(ctx context.Context, cred *entity.Credential, act actor.Actor, purpose string) ([]byte, error) {
	if err := s.recordView(ctx, cred, act, purpose); err != nil {
		return nil, err
	}

	plain, err := s.encryptor.Decrypt(cred.EncryptedSecret)
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt credential secret", "credential_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return plain, nil
}

func (s *Usecase) recordView(ctx context.Context, cred *entity.Credential, act actor.Actor, purpose string) error {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	err := s.audit.Record(ctx, auditentity.EventSecretViewed, act, cred.ID, map[string]any{
		"purpose":    purpose,
		"subject_id": cred.SubjectID,
	})
	if err != nil {
		return goerror.NewServer(err)
	}

	return nil
}

// ExportSeed returns the caller's own seed and its provisioning URI.
func (s *Usecase) ExportSeed(ctx context.Context, in ExportSeedInput) (*ExportSeedOutput, error) {
	ctx, span := s.startSpan(ctx, "ExportSeed")
	defer span.End()

	if in.Actor.SubjectID == "" {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	cred, err := s.getBySubject(ctx, in.Actor.SubjectID)
	if err != nil {
		return nil, err
	}

	seed, err := s.decrypt(ctx, cred, in.Actor, purposeExport)
	if err != nil {
		return nil, err
	}

	uri, err := s.totp.URI(accountName(cred.SubjectID, cred.Metadata.Label), string(seed))
	if err != nil {
		slog.ErrorContext(ctx, "failed to build provisioning uri", "credential_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ExportSeedOutput{Seed: string(seed), URI: uri}, nil
}

// CurrentCode shows an administrator the code the subject's authenticator
// displays right now.
func (s *Usecase) CurrentCode(ctx context.Context, in CurrentCodeInput) (string, error) {
	ctx, span := s.startSpan(ctx, "CurrentCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return "", goerror.NewInvalidInput(err)
	}

	if err := s.requirePrivileged(ctx, in.Actor); err != nil {
		return "", err
	}

	cred, err := s.getBySubject(ctx, in.SubjectID)
	if err != nil {
		return "", err
	}

	if err := s.recordView(ctx, cred, in.Actor, purposeCurrentCode); err != nil {
		return "", err
	}

	code, err := s.codes.CurrentCode(cred.EncryptedSecret)
	if err != nil {
		slog.ErrorContext(ctx, "failed to compute current code", "credential_id", cred.ID, "error", err)
		return "", goerror.NewServer(err)
	}

	return code, nil
}
