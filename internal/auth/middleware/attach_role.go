package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/unicover/unicover-lms/internal/rbac"
)

// AttachRoleFromDB replaces the role claim with the user's current role so
// demotions and deletions apply before the token expires. Mount after
// JWTMiddleware.
func AttachRoleFromDB(users *UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := SubjectFromContext(ctx)
			if sub == "" {
				next.ServeHTTP(w, r)
				return
			}
			u, err := users.Get(ctx, sub)
			switch {
			case errors.Is(err, ErrUserNotFound):
				http.Error(w, "unknown user", http.StatusUnauthorized)
				return
			case err != nil:
				log.Printf("auth: load role for %s: %v", sub, err)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, u.Role)))
		})
	}
}
