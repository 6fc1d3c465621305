package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	auditdb "github.com/shandysiswandi/ktvs/internal/audit/outbound/db"
	"github.com/shandysiswandi/ktvs/internal/credential/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("credential.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *DB) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return auditdb.MapError(err)
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return auditdb.MapError(tx.Commit(ctx))
}

const selectColumns = `
SELECT id::text, subject_id, encrypted_secret, metadata, kelley_attributes, security_flags,
       is_2fa_required, change_history, created_at, updated_at
FROM credentials`

func scanCredential(row pgx.Row) (*entity.Credential, error) {
	var c entity.Credential
	var metadata, attrs, flags, history []byte

	err := row.Scan(&c.ID, &c.SubjectID, &c.EncryptedSecret, &metadata, &attrs, &flags,
		&c.Is2FARequired, &history, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, auditdb.MapError(err)
	}

	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{metadata, &c.Metadata},
		{attrs, &c.KelleyAttributes},
		{flags, &c.SecurityFlags},
		{history, &c.ChangeHistory},
	} {
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("credential %s: decode column: %w", c.ID, err)
		}
	}

	return &c, nil
}

type encoded struct {
	metadata, attrs, flags, history []byte
}

func encode(c entity.Credential) (encoded, error) {
	var (
		out encoded
		err error
	)

	history := c.ChangeHistory
	if history == nil {
		history = []entity.ChangeRecord{}
	}
	attrs := c.KelleyAttributes
	if attrs == nil {
		attrs = map[string]any{}
	}

	if out.metadata, err = json.Marshal(c.Metadata); err != nil {
		return out, err
	}
	if out.attrs, err = json.Marshal(attrs); err != nil {
		return out, err
	}
	if out.flags, err = json.Marshal(c.SecurityFlags); err != nil {
		return out, err
	}
	if out.history, err = json.Marshal(history); err != nil {
		return out, err
	}

	return out, nil
}
