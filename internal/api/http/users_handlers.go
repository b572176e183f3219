package http

import (
	"errors"
	"net/http"
	"strings"

	authmw "github.com/unicover/unicover-lms/internal/auth/middleware"
	"github.com/unicover/unicover-lms/internal/rbac"
)

const minPassword = 8

// GET /api/admin/users?role=
func ListUsersHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		if role != "" && !rbac.ValidRole(role) {
			writeDetail(w, http.StatusBadRequest, "unknown role")
			return
		}
		us, err := d.Users.List(r.Context(), role)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, us)
	}
}

// POST /api/admin/users  {"username", "password", "role", "full_name"}
func CreateUserHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
			FullName string `json:"full_name"`
		}
		if !decode(w, r, &req) {
			return
		}
		if req.Role == "" {
			req.Role = rbac.RoleEditor
		}
		if len(req.Password) < minPassword {
			writeDetail(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}
		hash, err := authmw.HashPassword(req.Password)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		u, err := d.Users.Create(r.Context(), req.Username, hash, req.Role, strings.TrimSpace(req.FullName))
		switch {
		case errors.Is(err, authmw.ErrInvalidUser):
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, authmw.ErrUserExists):
			writeDetail(w, http.StatusConflict, err.Error())
			return
		case err != nil:
			writeErr(w, r, err)
			return
		}
		d.record(r, "user.created", u.ID, map[string]string{"username": u.Username, "role": u.Role})
		writeJSON(w, http.StatusCreated, u)
	}
}

// POST /api/auth/password  {"old_password", "new_password"}
func ChangePasswordHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			OldPassword string `json:"old_password"`
			NewPassword string `json:"new_password"`
		}
		if !decode(w, r, &req) {
			return
		}
		if len(req.NewPassword) < minPassword {
			writeDetail(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}
		err := d.Users.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword)
		if errors.Is(err, authmw.ErrInvalidCredentials) {
			http.Error(w, "incorrect old password", http.StatusForbidden)
			return
		}
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.record(r, "user.password", userID, nil)
		w.WriteHeader(http.StatusNoContent)
	}
}
