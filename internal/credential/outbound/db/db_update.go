package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	auditdb "github.com/shandysiswandi/ktvs/internal/audit/outbound/db"
	"github.com/shandysiswandi/ktvs/internal/credential/entity"
	"github.com/shandysiswandi/ktvs/internal/credential/usecase"
)

const updateSQL = `
UPDATE credentials SET
    metadata = $2, kelley_attributes = $3, security_flags = $4,
    is_2fa_required = $5, change_history = $6, updated_at = $7
WHERE id = $1`

// Update locks the row, hands it to fn and writes back the result with the
// events fn returns. When fn returns no events the row is left as it was.
func (s *DB) Update(ctx context.Context, id string, fn usecase.Mutator) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "Update")
	defer func() { s.endSpan(span, err) }()

	var out *entity.Credential
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		c, err := scanCredential(tx.QueryRow(ctx, selectColumns+` WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		events, err := fn(c)
		if err != nil {
			return err
		}
		out = c
		if len(events) == 0 {
			return nil
		}

		enc, err := encode(*c)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, updateSQL,
			c.ID, enc.metadata, enc.attrs, enc.flags, c.Is2FARequired, enc.history, c.UpdatedAt,
		); err != nil {
			return auditdb.MapError(err)
		}

		for _, ev := range events {
			if err := auditdb.InsertEvent(ctx, tx, ev); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *DB) Delete(ctx context.Context, id string, ev auditentity.Event) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer func() { s.endSpan(span, err) }()

	var deleted bool
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM credentials WHERE id = $1`, id)
		if err != nil {
			return auditdb.MapError(err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		deleted = true
		return auditdb.InsertEvent(ctx, tx, ev)
	})

	return deleted, err
}
