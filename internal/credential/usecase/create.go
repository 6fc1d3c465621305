package usecase

import (
	"context"
	"errors"
	"log/slog"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	"github.com/shandysiswandi/ktvs/internal/credential/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
	"github.com/shandysiswandi/ktvs/internal/shared/result"
)

type (
	CreateInput struct {
		SubjectID        string `validate:"required,max=255"`
		Secret           string `validate:"required,min=16,max=128"`
		Metadata         entity.Metadata
		KelleyAttributes map[string]any
		SecurityFlags    entity.SecurityFlags
		Actor            actor.Actor
	}

	ProvisionInput struct {
		SubjectID string `validate:"required,max=255"`
		Label     string `validate:"max=128"`
		Actor     actor.Actor
	}

	ProvisionOutput struct {
		Credential *entity.Credential
		URI        string
	}
)

// Create stores a credential for secret. The credential and its
// CREDENTIAL_CREATED event are committed together.
func (s *Usecase) Create(ctx context.Context, in CreateInput) (*entity.Credential, error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if err := s.checkParams(in.Metadata); err != nil {
		return nil, err
	}

	cred, err := s.newCredential(in.SubjectID, in.Secret, in.Metadata, in.KelleyAttributes, in.SecurityFlags)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt credential secret", "subject_id", in.SubjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ev := s.audit.NewEvent(auditentity.EventCredentialCreated, cred.ID, in.Actor, map[string]any{
		"subject_id": cred.SubjectID,
		"label":      cred.Metadata.Label,
	})

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	err = s.repoDB.Create(sctx, cred, ev)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "subject already has a credential", "subject_id", in.SubjectID)
		return nil, goerror.NewBusiness("subject already has a credential", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create credential", "subject_id", in.SubjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &cred, nil
}

// Provision generates a fresh seed for the subject and returns the otpauth
// URI to enrol it in an authenticator app.
func (s *Usecase) Provision(ctx context.Context, in ProvisionInput) (*ProvisionOutput, error) {
	ctx, span := s.startSpan(ctx, "Provision")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	secret, uri, err := s.totp.Generate(accountName(in.SubjectID, in.Label))
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp seed", "subject_id", in.SubjectID, "error", err)
		return nil, goerror.NewServer(err)
	}

	cred, err := s.Create(ctx, CreateInput{
		SubjectID: in.SubjectID,
		Secret:    secret,
		Metadata:  entity.Metadata{Label: in.Label},
		Actor:     in.Actor,
	})
	if err != nil {
		return nil, err
	}

	return &ProvisionOutput{Credential: cred, URI: uri}, nil
}

// RegisterSubject is the identity provider's registration hook. Provisioning
// is a side effect of registration, so a failure is reported rather than
// returned as an error.
func (s *Usecase) RegisterSubject(ctx context.Context, in ProvisionInput) (*ProvisionOutput, result.Result) {
	out, err := s.Provision(ctx, in)
	if err != nil {
		slog.WarnContext(ctx, "credential provisioning at registration failed", "subject_id", in.SubjectID, "error", err)
		return nil, result.SideEffectFailed(err.Error())
	}

	return out, result.CoreOperationSucceeded()
}

func accountName(subjectID, label string) string {
	if label != "" {
		return label
	}
	return subjectID
}
