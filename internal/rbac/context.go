package rbac

import "context"

type roleKey struct{}

// WithRole stores the caller's role, as resolved from the token or the
// users table.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey{}).(string)
	return role
}
