package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unicover/unicover-lms/internal/db"
	"github.com/unicover/unicover-lms/internal/rbac"
)

func newUsers(t *testing.T) *UserStore {
	t.Helper()
	h, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return NewUserStore(h)
}

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	tok, err := a.IssueJWT(User{ID: "u1", Username: "ed", Role: rbac.RoleEditor})
	require.NoError(t, err)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.Sub)
	assert.Equal(t, rbac.RoleEditor, c.Role)

	_, err = NewAuthService("other", time.Hour).Parse(tok)
	assert.Error(t, err)

	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = a.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{Sub: "u1", Role: rbac.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}})
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = a.Parse(s)
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	var gotSub, gotRole string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, _ := a.IssueJWT(User{ID: "u9", Role: rbac.RoleAdmin})
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u9", gotSub)
	assert.Equal(t, rbac.RoleAdmin, gotRole)
}

func TestOptionalJWT(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	h := OptionalJWT(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rbac.RoleFromContext(r.Context())))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer nope")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginAndAttachRole(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t)
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	require.NoError(t, users.EnsureAdmin(ctx, "admin", hash))
	require.NoError(t, users.EnsureAdmin(ctx, "admin", hash))
	ed, err := users.Create(ctx, "editor", hash, rbac.RoleEditor, "Editor")
	require.NoError(t, err)

	_, err = users.Create(ctx, "x", hash, "instructor", "")
	assert.Error(t, err)

	a := NewAuthService("secret", time.Hour)
	login := LoginHandler(a, users)

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))
		return w
	}
	assert.Equal(t, http.StatusBadRequest, post("{").Code)
	assert.Equal(t, http.StatusUnauthorized, post(`{"username":"admin","password":"nope"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, post(`{"username":"ghost","password":"s3cret"}`).Code)

	w := post(`{"username":"editor","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Equal(t, rbac.RoleEditor, out["role"])
	c, err := a.Parse(out["access_token"])
	require.NoError(t, err)
	assert.Equal(t, ed.ID, c.Sub)

	// role in the DB wins over the claim
	_, err = users.db.ExecContext(ctx, `UPDATE users SET role=$1 WHERE id=$2`, rbac.RoleStudent, ed.ID)
	require.NoError(t, err)
	var role string
	h := JWTMiddleware(a)(AttachRoleFromDB(users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role = rbac.RoleFromContext(r.Context())
	})))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+out["access_token"])
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, rbac.RoleStudent, role)

	ghost, _ := a.IssueJWT(User{ID: "deleted", Role: rbac.RoleAdmin})
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+ghost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
