// Package authz answers administrative privilege questions with casbin.
package authz

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
)

// RoleAdmin is the role granted by admin-elevation coupons and bootstrap config.
const RoleAdmin = "admin"

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && (p.act == "*" || r.act == p.act)
`

// Casbin is a casbin-backed authorizer.
type Casbin struct {
	enforcer *casbin.SyncedEnforcer
}

// New builds an enforcer over the adapter and loads the stored policy. A nil
// adapter keeps the policy in memory only.
func New(adapter persist.Adapter) (*Casbin, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz: model: %w", err)
	}

	params := []any{m}
	if adapter != nil {
		params = append(params, adapter)
	}

	e, err := casbin.NewSyncedEnforcer(params...)
	if err != nil {
		return nil, fmt.Errorf("authz: enforcer: %w", err)
	}

	return &Casbin{enforcer: e}, nil
}

// SetWatcher propagates local policy changes to other replicas.
func (c *Casbin) SetWatcher(w persist.Watcher) error {
	return c.enforcer.SetWatcher(w)
}

// LoadPolicy reloads the policy from storage.
func (c *Casbin) LoadPolicy() error {
	return c.enforcer.LoadPolicy()
}

// IsPrivileged reports whether subjectID holds the admin role.
func (c *Casbin) IsPrivileged(_ context.Context, subjectID string) (bool, error) {
	if subjectID == "" {
		return false, nil
	}
	return c.enforcer.Enforce(subjectID, RoleAdmin, "*")
}

// GrantAdmin assigns the admin role to subjectID. Granting twice is a no-op.
func (c *Casbin) GrantAdmin(_ context.Context, subjectID string) error {
	if _, err := c.enforcer.AddGroupingPolicy(subjectID, RoleAdmin); err != nil {
		return fmt.Errorf("authz: grant admin: %w", err)
	}
	return nil
}

// RevokeAdmin removes the admin role from subjectID.
func (c *Casbin) RevokeAdmin(_ context.Context, subjectID string) error {
	if _, err := c.enforcer.RemoveGroupingPolicy(subjectID, RoleAdmin); err != nil {
		return fmt.Errorf("authz: revoke admin: %w", err)
	}
	return nil
}
