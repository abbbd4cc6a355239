package llm

import "context"

type roleKey struct{}

// WithRole annotates the context with the council role on whose behalf the
// request is made. Middleware reads it for labeling; it does not affect the
// request itself.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// RoleFromContext returns the role recorded by WithRole, or "" when absent.
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey{}).(string)
	return role
}
