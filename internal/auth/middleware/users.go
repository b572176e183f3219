package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/unicover/unicover-lms/internal/db"
	"github.com/unicover/unicover-lms/internal/rbac"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidUser        = errors.New("invalid user")
	ErrUserExists         = errors.New("username taken")
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

type UserStore struct{ db *sql.DB }

func NewUserStore(h *sql.DB) *UserStore { return &UserStore{db: h} }

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *UserStore) Get(ctx context.Context, id string) (User, error) {
	var u User
	var created int64
	err := s.db.QueryRowContext(ctx, `SELECT id, username, role, full_name, created_at FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Username, &u.Role, &u.FullName, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return u, nil
}

// Authenticate checks username/password against the stored bcrypt hash.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (User, error) {
	var (
		u       User
		hash    string
		created int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, username, password_hash, role, full_name, created_at FROM users WHERE username=$1`,
		strings.TrimSpace(username)).Scan(&u.ID, &u.Username, &hash, &u.Role, &u.FullName, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return u, nil
}

// Create inserts a user with an already hashed password.
func (s *UserStore) Create(ctx context.Context, username, passHash, role, fullName string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || passHash == "" {
		return User{}, fmt.Errorf("%w: username and password are required", ErrInvalidUser)
	}
	if !rbac.ValidRole(role) {
		return User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidUser, role)
	}
	u := User{ID: uuid.NewString(), Username: username, Role: role, FullName: fullName, CreatedAt: time.Now().UTC()}
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, role, full_name, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`, u.ID, u.Username, passHash, u.Role, u.FullName, u.CreatedAt.Unix())
	if db.IsUniqueViolation(err) {
		return User{}, fmt.Errorf("%w: %s", ErrUserExists, u.Username)
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// EnsureAdmin creates the bootstrap admin, or resets its hash and role when
// it already exists, so the configured credentials always work.
func (s *UserStore) EnsureAdmin(ctx context.Context, username, passHash string) error {
	if username == "" || passHash == "" {
		return errors.New("admin username and password hash are required")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash=$1, role=$2 WHERE username=$3`,
		passHash, rbac.RoleAdmin, username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = s.Create(ctx, username, passHash, rbac.RoleAdmin, "Administrator")
	return err
}

func (s *UserStore) List(ctx context.Context, role string) ([]User, error) {
	q := `SELECT id, username, role, full_name, created_at FROM users`
	var args []any
	if role != "" {
		q += ` WHERE role=$1`
		args = append(args, role)
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY username`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		var u User
		var created int64
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.FullName, &created); err != nil {
			return nil, err
		}
		u.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, u)
	}
	return out, rows.Err()
}

// ChangePassword verifies the old password before storing the new one.
func (s *UserStore) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id=$1`, id).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, hash, id)
	return err
}
