package pgxcasbin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
)

const (
	fieldCount       = 6
	defaultTableName = "casbin_rule"
)

// Commander defines the pgx operations required by the adapter.
type Commander interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type store struct {
	db    Commander
	table string
}

func columns() string {
	return strings.Join(lo.Times(fieldCount, func(i int) string { return "v" + strconv.Itoa(i) }), ", ")
}

func (s *store) insert(ctx context.Context, q execer, ptype string, rule []string) error {
	values, err := normalizeRule(rule)
	if err != nil {
		return err
	}

	placeholders := strings.Join(lo.Times(fieldCount, func(i int) string { return "$" + strconv.Itoa(i+2) }), ", ")
	query := fmt.Sprintf("INSERT INTO %s (ptype, %s) VALUES ($1, %s) ON CONFLICT DO NOTHING",
		s.table, columns(), placeholders)

	if _, err := q.Exec(ctx, query, lo.ToAnySlice(genRule(ptype, values))...); err != nil {
		return fmt.Errorf("pgxcasbin: insert rule: %w", err)
	}
	return nil
}

func (s *store) insertMany(ctx context.Context, ptype string, rules [][]string) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, ignoreClosed(tx.Rollback(ctx)))
		}
	}()

	for _, rule := range rules {
		if err = s.insert(ctx, tx, ptype, rule); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *store) replaceAll(ctx context.Context, lines [][]string) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, ignoreClosed(tx.Rollback(ctx)))
		}
	}()

	if _, err = tx.Exec(ctx, "DELETE FROM "+s.table); err != nil {
		return fmt.Errorf("pgxcasbin: clear rules: %w", err)
	}
	for _, line := range lines {
		if err = s.insert(ctx, tx, line[0], line[1:]); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// deleteWhere removes rules of ptype whose columns starting at startIdx match
// the non-empty values.
func (s *store) deleteWhere(ctx context.Context, ptype string, startIdx int, values ...string) error {
	if ptype == "" {
		return ErrEmptyPtype
	}
	where, args, err := filter(ptype, startIdx, values)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, "DELETE FROM "+s.table+" WHERE "+where, args...); err != nil {
		return fmt.Errorf("pgxcasbin: delete rules: %w", err)
	}
	return nil
}

func (s *store) deleteExact(ctx context.Context, ptype string, rule []string) error {
	values, err := normalizeRule(rule)
	if err != nil {
		return err
	}

	conds := lo.Times(fieldCount, func(i int) string { return "v" + strconv.Itoa(i) + " = $" + strconv.Itoa(i+2) })
	query := "DELETE FROM " + s.table + " WHERE ptype = $1 AND " + strings.Join(conds, " AND ")

	if _, err := s.db.Exec(ctx, query, lo.ToAnySlice(genRule(ptype, values))...); err != nil {
		return fmt.Errorf("pgxcasbin: delete rule: %w", err)
	}
	return nil
}

func (s *store) selectAll(ctx context.Context) ([][]string, error) {
	rows, err := s.db.Query(ctx, "SELECT ptype, "+columns()+" FROM "+s.table+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("pgxcasbin: select rules: %w", err)
	}
	defer rows.Close()

	var lines [][]string
	for rows.Next() {
		row := make([]sql.NullString, fieldCount+1)
		dest := make([]any, len(row))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("pgxcasbin: scan rule: %w", err)
		}
		lines = append(lines, trimTrailingEmpty(lo.Map(row, func(v sql.NullString, _ int) string { return v.String })))
	}
	return lines, rows.Err()
}

func filter(ptype string, startIdx int, values []string) (string, []any, error) {
	if len(values) > fieldCount-startIdx {
		return "", nil, fmt.Errorf("%w: %d > %d", ErrArgsTooLong, len(values), fieldCount-startIdx)
	}

	conds := []string{"ptype = $1"}
	args := []any{ptype}
	for i, v := range values {
		if v == "" {
			continue
		}
		args = append(args, v)
		conds = append(conds, "v"+strconv.Itoa(i+startIdx)+" = $"+strconv.Itoa(len(args)))
	}
	return strings.Join(conds, " AND "), args, nil
}

func normalizeRule(rule []string) ([]string, error) {
	if len(rule) == 0 {
		return nil, ErrRuleEmpty
	}
	if len(rule) > fieldCount {
		return nil, fmt.Errorf("%w: %d", ErrRuleTooLong, len(rule))
	}
	out := make([]string, fieldCount)
	copy(out, rule)
	return out, nil
}

func genRule(ptype string, values []string) []string {
	return append([]string{ptype}, values...)
}

func trimTrailingEmpty(line []string) []string {
	end := len(line)
	for end > 0 && line[end-1] == "" {
		end--
	}
	return line[:end]
}

func ignoreClosed(err error) error {
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
