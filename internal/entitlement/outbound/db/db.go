package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	auditdb "github.com/shandysiswandi/ktvs/internal/audit/outbound/db"
	"github.com/shandysiswandi/ktvs/internal/entitlement/entity"
	"github.com/shandysiswandi/ktvs/internal/entitlement/usecase"
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
	return s.ins.Tracer("entitlement.outbound.db").Start(ctx, name)
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
SELECT id::text, subject_id, plan, billing_cycle, status, period_start, period_end,
       cancel_at_period_end, generation_limit, storage_limit_mb, api_calls_per_day,
       generation_count, storage_used_bytes, api_calls_today, unlimited_generation,
       discount_percent, created_at, updated_at
FROM subscriptions`

func scanSubscription(row pgx.Row) (*entity.Subscription, error) {
	var (
		sub                 entity.Subscription
		plan, cycle, status string
	)

	err := row.Scan(&sub.ID, &sub.SubjectID, &plan, &cycle, &status, &sub.PeriodStart, &sub.PeriodEnd,
		&sub.CancelAtPeriodEnd, &sub.GenerationLimit, &sub.StorageLimitMB, &sub.APICallsPerDay,
		&sub.GenerationCount, &sub.StorageUsedBytes, &sub.APICallsToday, &sub.UnlimitedGeneration,
		&sub.DiscountPercent, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, auditdb.MapError(err)
	}

	sub.Plan = entity.Plan(plan)
	sub.BillingCycle = entity.BillingCycle(cycle)
	sub.Status = entity.Status(status)

	return &sub, nil
}

// Ensure inserts sub unless the subject already has a subscription, then
// returns whichever row is stored.
func (s *DB) Ensure(ctx context.Context, sub entity.Subscription) (_ *entity.Subscription, err error) {
	ctx, span := s.startSpan(ctx, "Ensure")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
INSERT INTO subscriptions (
    id, subject_id, plan, billing_cycle, status, period_start, period_end,
    generation_limit, storage_limit_mb, api_calls_per_day, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (subject_id) DO NOTHING`,
		sub.ID, sub.SubjectID, string(sub.Plan), string(sub.BillingCycle), string(sub.Status),
		sub.PeriodStart, sub.PeriodEnd, sub.GenerationLimit, sub.StorageLimitMB, sub.APICallsPerDay,
		sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return nil, auditdb.MapError(err)
	}

	return scanSubscription(s.conn.QueryRow(ctx, selectColumns+` WHERE subject_id = $1`, sub.SubjectID))
}

const updateSQL = `
UPDATE subscriptions SET
    plan = $2, billing_cycle = $3, status = $4, period_start = $5, period_end = $6,
    cancel_at_period_end = $7, generation_limit = $8, storage_limit_mb = $9,
    api_calls_per_day = $10, unlimited_generation = $11, discount_percent = $12, updated_at = $13
WHERE subject_id = $1`

// Update locks the subject's row, hands it to fn and writes back the result
// with the events fn returns. Usage counters are never written here.
func (s *DB) Update(ctx context.Context, subjectID string, fn usecase.Mutator) (_ *entity.Subscription, err error) {
	ctx, span := s.startSpan(ctx, "Update")
	defer func() { s.endSpan(span, err) }()

	var out *entity.Subscription
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		sub, err := scanSubscription(tx.QueryRow(ctx, selectColumns+` WHERE subject_id = $1 FOR UPDATE`, subjectID))
		if err != nil {
			return err
		}

		events, err := fn(sub)
		if err != nil {
			return err
		}
		out = sub
		if len(events) == 0 {
			return nil
		}

		if _, err := tx.Exec(ctx, updateSQL,
			subjectID, string(sub.Plan), string(sub.BillingCycle), string(sub.Status),
			sub.PeriodStart, sub.PeriodEnd, sub.CancelAtPeriodEnd, sub.GenerationLimit,
			sub.StorageLimitMB, sub.APICallsPerDay, sub.UnlimitedGeneration, sub.DiscountPercent,
			sub.UpdatedAt,
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

// IncrementUsage adds one generation when the limit allows it and reports
// whether it did.
func (s *DB) IncrementUsage(ctx context.Context, subjectID string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "IncrementUsage")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
UPDATE subscriptions SET generation_count = generation_count + 1, updated_at = now()
WHERE subject_id = $1
  AND (unlimited_generation OR generation_limit < 0 OR generation_count < generation_limit)`, subjectID)
	if err != nil {
		return false, auditdb.MapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *DB) DecrementUsage(ctx context.Context, subjectID string) (err error) {
	ctx, span := s.startSpan(ctx, "DecrementUsage")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
UPDATE subscriptions SET generation_count = GREATEST(generation_count - 1, 0), updated_at = now()
WHERE subject_id = $1`, subjectID)

	return auditdb.MapError(err)
}

// AddStorage moves storage_used_bytes by delta. Growth is refused past the
// storage limit; shrinking stops at zero.
func (s *DB) AddStorage(ctx context.Context, subjectID string, delta int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "AddStorage")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
UPDATE subscriptions SET storage_used_bytes = GREATEST(storage_used_bytes + $2, 0), updated_at = now()
WHERE subject_id = $1
  AND ($2 <= 0 OR storage_limit_mb < 0 OR storage_used_bytes + $2 <= storage_limit_mb * 1048576)`,
		subjectID, delta)
	if err != nil {
		return false, auditdb.MapError(err)
	}

	return tag.RowsAffected() == 1, nil
}
