package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(h *sql.DB) *SQLStore {
	return &SQLStore{db: h, now: time.Now}
}

const columns = `id, name, company, email, phone, direction, message, status, created_at, updated_at`

type scanner interface{ Scan(dest ...any) error }

func scanMessage(row scanner) (Message, error) {
	var m Message
	var created, updated int64
	if err := row.Scan(&m.ID, &m.Name, &m.Company, &m.Email, &m.Phone, &m.Direction, &m.Message, &m.Status,
		&created, &updated); err != nil {
		return Message{}, err
	}
	m.CreatedAt = time.Unix(created, 0).UTC()
	m.UpdatedAt = time.Unix(updated, 0).UTC()
	return m, nil
}

func (s *SQLStore) Create(ctx context.Context, m Message) (Message, error) {
	now := s.now().Unix()
	var id int64
	err := s.db.QueryRowContext(ctx, `INSERT INTO contact_messages (name, company, email, phone, direction, message, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8) RETURNING id`,
		m.Name, m.Company, m.Email, m.Phone, string(m.Direction), m.Message, string(StatusNew), now).Scan(&id)
	if err != nil {
		return Message{}, err
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) Get(ctx context.Context, id int64) (Message, error) {
	m, err := scanMessage(s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM contact_messages WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, fmt.Errorf("contact %d: %w", id, ErrNotFound)
	}
	return m, err
}

// List returns messages newest first, optionally filtered by status.
func (s *SQLStore) List(ctx context.Context, status Status) ([]Message, error) {
	q := `SELECT ` + columns + ` FROM contact_messages`
	var args []any
	if status != "" {
		q += ` WHERE status=$1`
		args = append(args, string(status))
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) SetStatus(ctx context.Context, id int64, st Status) (Message, error) {
	if !st.Valid() {
		return Message{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, st)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE contact_messages SET status=$1, updated_at=$2 WHERE id=$3`,
		string(st), s.now().Unix(), id)
	if err != nil {
		return Message{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Message{}, fmt.Errorf("contact %d: %w", id, ErrNotFound)
	}
	return s.Get(ctx, id)
}
