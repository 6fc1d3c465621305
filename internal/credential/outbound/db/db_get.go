package db

import (
	"context"

	"github.com/shandysiswandi/ktvs/internal/credential/entity"
)

func (s *DB) GetBySubject(ctx context.Context, subjectID string) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "GetBySubject")
	defer func() { s.endSpan(span, err) }()

	return scanCredential(s.conn.QueryRow(ctx, selectColumns+` WHERE subject_id = $1`, subjectID))
}

func (s *DB) GetByID(ctx context.Context, id string) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "GetByID")
	defer func() { s.endSpan(span, err) }()

	return scanCredential(s.conn.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
}
