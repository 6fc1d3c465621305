package pgxcasbin

import (
	"context"

	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/samber/lo"
)

// Adapter stores and retrieves casbin policies using pgx.
type Adapter struct {
	store *store
}

var (
	_ persist.Adapter        = (*Adapter)(nil)
	_ persist.ContextAdapter = (*Adapter)(nil)
	_ persist.BatchAdapter   = (*Adapter)(nil)
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithTableName overrides the default rule table name.
func WithTableName(name string) Option {
	return func(a *Adapter) {
		a.store.table = lo.SnakeCase(name)
	}
}

// NewAdapter creates a pgx-backed adapter. The rule table is owned by the
// schema migrations and must already exist.
func NewAdapter(db Commander, opts ...Option) *Adapter {
	a := &Adapter{store: &store{db: db, table: defaultTableName}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LoadPolicyCtx loads all policies into the model.
func (a *Adapter) LoadPolicyCtx(ctx context.Context, m model.Model) error {
	lines, err := a.store.selectAll(ctx)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if err := persist.LoadPolicyArray(line, m); err != nil {
			return err
		}
	}
	return nil
}

// SavePolicyCtx replaces the stored policies with the model's.
func (a *Adapter) SavePolicyCtx(ctx context.Context, m model.Model) error {
	var lines [][]string
	for _, sec := range []string{"p", "g"} {
		for ptype, ast := range m[sec] {
			for _, rule := range ast.Policy {
				lines = append(lines, genRule(ptype, rule))
			}
		}
	}
	return a.store.replaceAll(ctx, lines)
}

// AddPolicyCtx adds a single rule. Adding an existing rule is a no-op.
func (a *Adapter) AddPolicyCtx(ctx context.Context, _ string, ptype string, rule []string) error {
	return a.store.insert(ctx, a.store.db, ptype, rule)
}

// RemovePolicyCtx removes a single rule.
func (a *Adapter) RemovePolicyCtx(ctx context.Context, _ string, ptype string, rule []string) error {
	return a.store.deleteExact(ctx, ptype, rule)
}

// RemoveFilteredPolicyCtx removes rules matching the filter.
func (a *Adapter) RemoveFilteredPolicyCtx(ctx context.Context, _ string, ptype string, fieldIndex int, fieldValues ...string) error {
	return a.store.deleteWhere(ctx, ptype, fieldIndex, fieldValues...)
}

func (a *Adapter) LoadPolicy(m model.Model) error {
	return a.LoadPolicyCtx(context.Background(), m)
}

func (a *Adapter) SavePolicy(m model.Model) error {
	return a.SavePolicyCtx(context.Background(), m)
}

func (a *Adapter) AddPolicy(sec string, ptype string, rule []string) error {
	return a.AddPolicyCtx(context.Background(), sec, ptype, rule)
}

func (a *Adapter) RemovePolicy(sec string, ptype string, rule []string) error {
	return a.RemovePolicyCtx(context.Background(), sec, ptype, rule)
}

func (a *Adapter) RemoveFilteredPolicy(sec string, ptype string, fieldIndex int, fieldValues ...string) error {
	return a.RemoveFilteredPolicyCtx(context.Background(), sec, ptype, fieldIndex, fieldValues...)
}

// AddPolicies adds several rules in one transaction.
func (a *Adapter) AddPolicies(_ string, ptype string, rules [][]string) error {
	return a.store.insertMany(context.Background(), ptype, rules)
}

// RemovePolicies removes several rules.
func (a *Adapter) RemovePolicies(_ string, ptype string, rules [][]string) error {
	for _, rule := range rules {
		if err := a.store.deleteExact(context.Background(), ptype, rule); err != nil {
			return err
		}
	}
	return nil
}
