package usecase

import (
	"context"

	"github.com/shandysiswandi/ktvs/internal/credential/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
)

type GetBySubjectInput struct {
	SubjectID string `validate:"required,max=255"`
}

// GetBySubject never decrypts and writes no audit event.
func (s *Usecase) GetBySubject(ctx context.Context, in GetBySubjectInput) (*entity.Credential, error) {
	ctx, span := s.startSpan(ctx, "GetBySubject")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.getBySubject(ctx, in.SubjectID)
}

// ListHistory returns the change history of the subject's credential, oldest first.
func (s *Usecase) ListHistory(ctx context.Context, in GetBySubjectInput) ([]entity.ChangeRecord, error) {
	ctx, span := s.startSpan(ctx, "ListHistory")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cred, err := s.getBySubject(ctx, in.SubjectID)
	if err != nil {
		return nil, err
	}

	return cred.ChangeHistory, nil
}
