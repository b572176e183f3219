package license

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unicover/unicover-lms/internal/db"
)

type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(h *sql.DB) *SQLStore {
	return &SQLStore{db: h, now: time.Now}
}

const columns = `id, title, number, category, description, file_key, issued_date, valid_until, is_active, created_at, updated_at`

type scanner interface{ Scan(dest ...any) error }

func scanLicense(row scanner) (License, error) {
	var (
		l       License
		issued  string
		until   sql.NullString
		created int64
		updated int64
	)
	if err := row.Scan(&l.ID, &l.Title, &l.Number, &l.Category, &l.Description, &l.FileKey, &issued, &until,
		&l.IsActive, &created, &updated); err != nil {
		return License{}, err
	}
	var err error
	if l.IssuedDate, err = ParseDate(issued); err != nil {
		return License{}, err
	}
	if until.Valid && until.String != "" {
		d, err := ParseDate(until.String)
		if err != nil {
			return License{}, err
		}
		l.ValidUntil = &d
	}
	l.CreatedAt = time.Unix(created, 0).UTC()
	l.UpdatedAt = time.Unix(updated, 0).UTC()
	return l, nil
}

func untilValue(l License) any {
	if l.ValidUntil == nil || l.ValidUntil.IsZero() {
		return nil
	}
	return l.ValidUntil.String()
}

func (s *SQLStore) Create(ctx context.Context, l License) (License, error) {
	l.Number = strings.TrimSpace(l.Number)
	if err := l.Validate(); err != nil {
		return License{}, err
	}
	now := s.now().Unix()
	var id int64
	err := s.db.QueryRowContext(ctx, `INSERT INTO licenses (title, number, category, description, file_key, issued_date, valid_until, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9) RETURNING id`,
		l.Title, l.Number, string(l.Category), l.Description, l.FileKey, l.IssuedDate.String(), untilValue(l), l.IsActive, now).Scan(&id)
	if err != nil {
		return License{}, conflict(err, l.Number)
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) Get(ctx context.Context, id int64) (License, error) {
	l, err := scanLicense(s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM licenses WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return License{}, fmt.Errorf("license %d: %w", id, ErrNotFound)
	}
	return l, err
}

// Update keeps the stored file key; SetFile changes it.
func (s *SQLStore) Update(ctx context.Context, l License) (License, error) {
	l.Number = strings.TrimSpace(l.Number)
	if err := l.Validate(); err != nil {
		return License{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE licenses SET title=$1, number=$2, category=$3, description=$4,
		issued_date=$5, valid_until=$6, is_active=$7, updated_at=$8 WHERE id=$9`,
		l.Title, l.Number, string(l.Category), l.Description, l.IssuedDate.String(), untilValue(l), l.IsActive,
		s.now().Unix(), l.ID)
	if err != nil {
		return License{}, conflict(err, l.Number)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return License{}, fmt.Errorf("license %d: %w", l.ID, ErrNotFound)
	}
	return s.Get(ctx, l.ID)
}

func (s *SQLStore) SetFile(ctx context.Context, id int64, key string) (License, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE licenses SET file_key=$1, updated_at=$2 WHERE id=$3`, key, s.now().Unix(), id)
	if err != nil {
		return License{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return License{}, fmt.Errorf("license %d: %w", id, ErrNotFound)
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM licenses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("license %d: %w", id, ErrNotFound)
	}
	return nil
}

// List orders by category, then newest issue date first.
func (s *SQLStore) List(ctx context.Context, c Category, activeOnly bool) ([]License, error) {
	var (
		where []string
		args  []any
	)
	if c != "" {
		args = append(args, string(c))
		where = append(where, fmt.Sprintf("category=$%d", len(args)))
	}
	if activeOnly {
		args = append(args, true)
		where = append(where, fmt.Sprintf("is_active=$%d", len(args)))
	}
	q := `SELECT ` + columns + ` FROM licenses`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY category, issued_date DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []License{}
	for rows.Next() {
		l, err := scanLicense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func conflict(err error, number string) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: license number %q already exists", ErrConflict, number)
	}
	return err
}
