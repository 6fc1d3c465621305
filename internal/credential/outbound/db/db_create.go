package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	auditdb "github.com/shandysiswandi/ktvs/internal/audit/outbound/db"
	"github.com/shandysiswandi/ktvs/internal/credential/entity"
)

const insertSQL = `
INSERT INTO credentials (
    id, subject_id, encrypted_secret, metadata, kelley_attributes, security_flags,
    is_2fa_required, change_history, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func insert(ctx context.Context, tx pgx.Tx, c entity.Credential) error {
	enc, err := encode(c)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, insertSQL,
		c.ID, c.SubjectID, c.EncryptedSecret, enc.metadata, enc.attrs, enc.flags,
		c.Is2FARequired, enc.history, c.CreatedAt, c.UpdatedAt,
	)
	return auditdb.MapError(err)
}

// Create inserts cred and ev together. A second credential for the same
// subject fails with goerror.ErrConflict.
func (s *DB) Create(ctx context.Context, cred entity.Credential, ev auditentity.Event) (err error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer func() { s.endSpan(span, err) }()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := insert(ctx, tx, cred); err != nil {
			return err
		}
		return auditdb.InsertEvent(ctx, tx, ev)
	})
}

// Replace deletes oldID, when set, and inserts cred in the same transaction
// as events.
func (s *DB) Replace(ctx context.Context, oldID string, cred entity.Credential, events []auditentity.Event) (err error) {
	ctx, span := s.startSpan(ctx, "Replace")
	defer func() { s.endSpan(span, err) }()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if oldID != "" {
			if _, err := tx.Exec(ctx, `DELETE FROM credentials WHERE id = $1`, oldID); err != nil {
				return auditdb.MapError(err)
			}
		}

		if err := insert(ctx, tx, cred); err != nil {
			return err
		}

		for _, ev := range events {
			if err := auditdb.InsertEvent(ctx, tx, ev); err != nil {
				return err
			}
		}

		return nil
	})
}
