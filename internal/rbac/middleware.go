package rbac

import "net/http"

var defaultChecker = NewChecker(nil)

// Require lets the request through when the caller's role holds any of
// perms. No role at all is 401; a role without the permission is 403.
func Require(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			switch {
			case role == "":
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			case !defaultChecker.Any(role, perms...):
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
