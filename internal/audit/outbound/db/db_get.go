package db

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/ktvs/internal/audit/entity"
)

func where(f entity.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(col, v string) {
		if v == "" {
			return
		}
		args = append(args, v)
		conds = append(conds, col+" = $"+strconv.Itoa(len(args)))
	}

	add("target_credential_id", f.Target)
	add("actor_subject_id", f.Subject)
	add("event_type", string(f.EventType))

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *DB) List(ctx context.Context, f entity.Filter, limit int) (_ []entity.Event, err error) {
	ctx, span := s.startSpan(ctx, "List")
	defer func() { s.endSpan(span, err) }()

	cond, args := where(f)
	args = append(args, limit)
	query := `SELECT id, event_type, actor_subject_id, actor_origin_address, actor_origin_agent,
        COALESCE(target_credential_id, ''), payload, occurred_at
        FROM audit_events` + cond + ` ORDER BY occurred_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	events := make([]entity.Event, 0, limit)
	for rows.Next() {
		var (
			ev      entity.Event
			evType  string
			payload []byte
			at      time.Time
		)
		if err := rows.Scan(&ev.ID, &evType, &ev.Actor.SubjectID, &ev.Actor.OriginAddress,
			&ev.Actor.OriginAgent, &ev.Target, &payload, &at); err != nil {
			return nil, MapError(err)
		}
		ev.Type = entity.EventType(evType)
		ev.Timestamp = at.UTC()
		if err := json.Unmarshal(payload, &ev.Payload); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	return events, MapError(rows.Err())
}

func (s *DB) Count(ctx context.Context, f entity.Filter) (n int64, err error) {
	ctx, span := s.startSpan(ctx, "Count")
	defer func() { s.endSpan(span, err) }()

	cond, args := where(f)
	err = MapError(s.conn.QueryRow(ctx, "SELECT count(*) FROM audit_events"+cond, args...).Scan(&n))
	return n, err
}
