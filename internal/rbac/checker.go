package rbac

import (
	"context"
	"strings"
)

// Checker answers "may this role perform this action" against a
// role→permission table. Permissions are flat strings like "test:publish";
// a trailing "*" in a grant matches any permission with that prefix, and a
// bare "*" grants everything.
type Checker struct {
	grants map[string][]string
}

func NewChecker(grants map[string][]string) *Checker {
	if grants == nil {
		grants = RolePermissions
	}
	return &Checker{grants: grants}
}

func (c *Checker) Has(role, perm string) bool {
	for _, g := range c.grants[role] {
		switch {
		case g == "*":
			return true
		case g == perm:
			return true
		case strings.HasSuffix(g, "*") && strings.HasPrefix(perm, g[:len(g)-1]):
			return true
		}
	}
	return false
}

// Any reports whether the role holds at least one of the permissions.
func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

// ---- role in context ----

type ctxKey struct{}

var ctxKeyRole = ctxKey{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole, role)
}

func RoleFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRole).(string); ok {
		return s
	}
	return ""
}
