package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	auditdb "github.com/shandysiswandi/ktvs/internal/audit/outbound/db"
	"github.com/shandysiswandi/ktvs/internal/coupon/entity"
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
	return s.ins.Tracer("coupon.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
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
SELECT code, type, value, signature, expires_at, created_at, issuer, redeemed_by, redeemed_at, is_consumed
FROM coupons`

func scanCoupon(row pgx.Row) (*entity.Coupon, error) {
	var c entity.Coupon
	var t string

	err := row.Scan(&c.Code, &t, &c.Value, &c.Signature, &c.ExpiresAt, &c.CreatedAt,
		&c.Issuer, &c.RedeemedBy, &c.RedeemedAt, &c.IsConsumed)
	if err != nil {
		return nil, auditdb.MapError(err)
	}
	c.Type = entity.Type(t)
	c.ExpiresAt = c.ExpiresAt.UTC()

	return &c, nil
}

// Insert stores c with its COUPON_ISSUED event.
func (s *DB) Insert(ctx context.Context, c entity.Coupon, ev auditentity.Event) (err error) {
	ctx, span := s.startSpan(ctx, "Insert")
	defer func() { s.endSpan(span, err) }()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO coupons (code, type, value, signature, expires_at, created_at, issuer)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			c.Code, string(c.Type), c.Value, c.Signature, c.ExpiresAt, c.CreatedAt, c.Issuer)
		if err != nil {
			return auditdb.MapError(err)
		}
		return auditdb.InsertEvent(ctx, tx, ev)
	})
}

func (s *DB) Get(ctx context.Context, code string) (_ *entity.Coupon, err error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer func() { s.endSpan(span, err) }()

	return scanCoupon(s.conn.QueryRow(ctx, selectColumns+` WHERE code = $1`, code))
}

// Consume marks a single-use coupon redeemed by subjectID. The row is only
// updated while unconsumed, so a concurrent second redemption gets
// goerror.ErrConflict. Reusable coupons are left untouched and only the
// event is written.
func (s *DB) Consume(ctx context.Context, code, subjectID string, at time.Time, reusable bool, ev auditentity.Event) (err error) {
	ctx, span := s.startSpan(ctx, "Consume")
	defer func() { s.endSpan(span, err) }()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if !reusable {
			tag, err := tx.Exec(ctx, `
UPDATE coupons SET redeemed_by = $2, redeemed_at = $3, is_consumed = TRUE
WHERE code = $1 AND is_consumed = FALSE`, code, subjectID, at)
			if err != nil {
				return auditdb.MapError(err)
			}
			if tag.RowsAffected() == 0 {
				return goerror.ErrConflict
			}
		}
		return auditdb.InsertEvent(ctx, tx, ev)
	})
}

// Release clears a single-use redemption held by subjectID and records ev. A
// row redeemed by anyone else is left alone and yields goerror.ErrConflict.
func (s *DB) Release(ctx context.Context, code, subjectID string, reusable bool, ev auditentity.Event) (err error) {
	ctx, span := s.startSpan(ctx, "Release")
	defer func() { s.endSpan(span, err) }()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if !reusable {
			tag, err := tx.Exec(ctx, `
UPDATE coupons SET redeemed_by = NULL, redeemed_at = NULL, is_consumed = FALSE
WHERE code = $1 AND redeemed_by = $2 AND is_consumed = TRUE`, code, subjectID)
			if err != nil {
				return auditdb.MapError(err)
			}
			if tag.RowsAffected() == 0 {
				return goerror.ErrConflict
			}
		}
		return auditdb.InsertEvent(ctx, tx, ev)
	})
}

func (s *DB) List(ctx context.Context, onlyUnconsumed bool, limit int) (_ []entity.Coupon, err error) {
	ctx, span := s.startSpan(ctx, "List")
	defer func() { s.endSpan(span, err) }()

	query := selectColumns
	if onlyUnconsumed {
		query += ` WHERE is_consumed = FALSE`
	}
	query += ` ORDER BY created_at DESC, code LIMIT $1`

	rows, err := s.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, auditdb.MapError(err)
	}
	defer rows.Close()

	out := make([]entity.Coupon, 0, limit)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}

	return out, auditdb.MapError(rows.Err())
}
