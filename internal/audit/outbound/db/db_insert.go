package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shandysiswandi/ktvs/internal/audit/entity"
)

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const insertEventSQL = `
INSERT INTO audit_events (
    id, event_type, actor_subject_id, actor_origin_address, actor_origin_agent,
    target_credential_id, payload, occurred_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// InsertEvent appends ev through q. Pass a transaction to commit the event
// together with the mutation it describes.
func InsertEvent(ctx context.Context, q Execer, ev entity.Event) error {
	payload := ev.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("audit: marshal payload: %w", err)
	}

	var target *string
	if ev.Target != "" {
		target = &ev.Target
	}

	_, err = q.Exec(ctx, insertEventSQL,
		ev.ID, string(ev.Type), ev.Actor.SubjectID, ev.Actor.OriginAddress, ev.Actor.OriginAgent,
		target, raw, ev.Timestamp.UTC(),
	)
	return MapError(err)
}

func (s *DB) Insert(ctx context.Context, ev entity.Event) (err error) {
	ctx, span := s.startSpan(ctx, "Insert")
	defer func() { s.endSpan(span, err) }()

	return InsertEvent(ctx, s.conn, ev)
}
