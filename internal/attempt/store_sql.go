package attempt

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/unicover/unicover-lms/internal/db"
)

type Store interface {
	Start(ctx context.Context, a Attempt, maxAttempts int) (Attempt, error)
	Get(ctx context.Context, id int64) (Attempt, error)
	SaveAnswers(ctx context.Context, id int64, answers map[string]any) (Attempt, error)
	Complete(ctx context.Context, id int64, answers map[string]any, score float64, passed bool) (Attempt, error)
	List(ctx context.Context, o ListOpts) ([]Attempt, error)

	CreateRequest(ctx context.Context, r ExtraRequest) (ExtraRequest, error)
	GetRequest(ctx context.Context, id int64) (ExtraRequest, error)
	ListRequests(ctx context.Context, status RequestStatus, userID string) ([]ExtraRequest, error)
	DecideRequest(ctx context.Context, id int64, st RequestStatus, response, by string) (ExtraRequest, error)
}

type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(h *sql.DB) *SQLStore {
	return &SQLStore{db: h, now: time.Now}
}

var _ Store = (*SQLStore)(nil)

const attemptColumns = `id, test_id, user_id, started_at, completed_at, score, passed, answers_json, ip_address, user_agent`

type scanner interface{ Scan(dest ...any) error }

func scanAttempt(row scanner) (Attempt, error) {
	var (
		a         Attempt
		started   int64
		completed sql.NullInt64
		score     sql.NullFloat64
		passed    sql.NullBool
		answers   string
	)
	if err := row.Scan(&a.ID, &a.TestID, &a.UserID, &started, &completed, &score, &passed, &answers,
		&a.IPAddress, &a.UserAgent); err != nil {
		return Attempt{}, err
	}
	a.StartedAt = time.Unix(started, 0).UTC()
	if completed.Valid {
		t := time.Unix(completed.Int64, 0).UTC()
		a.CompletedAt = &t
	}
	if score.Valid {
		a.Score = &score.Float64
	}
	if passed.Valid {
		a.Passed = &passed.Bool
	}
	a.Answers = map[string]any{}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return Attempt{}, fmt.Errorf("attempt %d answers: %w", a.ID, err)
	}
	return a, nil
}

func answersJSON(m map[string]any) (string, error) {
	if m == nil {
		m = map[string]any{}
	}
	b, err := json.Marshal(m)
	return string(b), err
}

// Start counts the user's attempts on the test against maxAttempts plus one
// per approved extra request, and inserts a new attempt if any are left.
func (s *SQLStore) Start(ctx context.Context, a Attempt, maxAttempts int) (Attempt, error) {
	var id int64
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var used, extra int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM test_attempts WHERE user_id=$1 AND test_id=$2`,
			a.UserID, a.TestID).Scan(&used); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM extra_attempt_requests WHERE user_id=$1 AND test_id=$2 AND status=$3`,
			a.UserID, a.TestID, string(Approved)).Scan(&extra); err != nil {
			return err
		}
		if used >= maxAttempts+extra {
			return fmt.Errorf("%w: maximum attempts (%d) reached", ErrLimitReached, maxAttempts+extra)
		}
		return tx.QueryRowContext(ctx, `INSERT INTO test_attempts (test_id, user_id, started_at, answers_json, ip_address, user_agent)
			VALUES ($1,$2,$3,'{}',$4,$5) RETURNING id`,
			a.TestID, a.UserID, s.now().Unix(), a.IPAddress, a.UserAgent).Scan(&id)
	})
	if err != nil {
		return Attempt{}, err
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) Get(ctx context.Context, id int64) (Attempt, error) {
	a, err := scanAttempt(s.db.QueryRowContext(ctx, `SELECT `+attemptColumns+` FROM test_attempts WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, fmt.Errorf("attempt %d: %w", id, ErrNotFound)
	}
	return a, err
}

// openOrErr explains why an update guarded by completed_at IS NULL touched
// no row.
func (s *SQLStore) openOrErr(ctx context.Context, res sql.Result, id int64) error {
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("attempt %d: %w", id, ErrCompleted)
}

func (s *SQLStore) SaveAnswers(ctx context.Context, id int64, answers map[string]any) (Attempt, error) {
	aj, err := answersJSON(answers)
	if err != nil {
		return Attempt{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE test_attempts SET answers_json=$1 WHERE id=$2 AND completed_at IS NULL`, aj, id)
	if err != nil {
		return Attempt{}, err
	}
	if err := s.openOrErr(ctx, res, id); err != nil {
		return Attempt{}, err
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) Complete(ctx context.Context, id int64, answers map[string]any, score float64, passed bool) (Attempt, error) {
	aj, err := answersJSON(answers)
	if err != nil {
		return Attempt{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE test_attempts SET answers_json=$1, score=$2, passed=$3, completed_at=$4
		WHERE id=$5 AND completed_at IS NULL`, aj, score, passed, s.now().Unix(), id)
	if err != nil {
		return Attempt{}, err
	}
	if err := s.openOrErr(ctx, res, id); err != nil {
		return Attempt{}, err
	}
	return s.Get(ctx, id)
}

// List returns attempts newest first.
func (s *SQLStore) List(ctx context.Context, o ListOpts) ([]Attempt, error) {
	q := `SELECT ` + attemptColumns + ` FROM test_attempts WHERE 1=1`
	var args []any
	if o.UserID != "" {
		args = append(args, o.UserID)
		q += fmt.Sprintf(` AND user_id=$%d`, len(args))
	}
	if o.TestID > 0 {
		args = append(args, o.TestID)
		q += fmt.Sprintf(` AND test_id=$%d`, len(args))
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY started_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const requestColumns = `id, user_id, test_id, reason, status, admin_response, processed_by, processed_at, created_at, updated_at`

func scanRequest(row scanner) (ExtraRequest, error) {
	var (
		r                ExtraRequest
		by               sql.NullString
		processed        sql.NullInt64
		created, updated int64
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.TestID, &r.Reason, &r.Status, &r.AdminResponse, &by, &processed,
		&created, &updated); err != nil {
		return ExtraRequest{}, err
	}
	r.ProcessedBy = by.String
	if processed.Valid {
		t := time.Unix(processed.Int64, 0).UTC()
		r.ProcessedAt = &t
	}
	r.CreatedAt = time.Unix(created, 0).UTC()
	r.UpdatedAt = time.Unix(updated, 0).UTC()
	return r, nil
}

// CreateRequest refuses a second pending request for the same test.
func (s *SQLStore) CreateRequest(ctx context.Context, r ExtraRequest) (ExtraRequest, error) {
	if err := r.Validate(); err != nil {
		return ExtraRequest{}, err
	}
	var id int64
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var pending int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM extra_attempt_requests WHERE user_id=$1 AND test_id=$2 AND status=$3`,
			r.UserID, r.TestID, string(Pending)).Scan(&pending); err != nil {
			return err
		}
		if pending > 0 {
			return fmt.Errorf("%w: a request for test %d is already pending", ErrConflict, r.TestID)
		}
		now := s.now().Unix()
		return tx.QueryRowContext(ctx, `INSERT INTO extra_attempt_requests (user_id, test_id, reason, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$5) RETURNING id`,
			r.UserID, r.TestID, r.Reason, string(Pending), now).Scan(&id)
	})
	if err != nil {
		return ExtraRequest{}, err
	}
	return s.GetRequest(ctx, id)
}

func (s *SQLStore) GetRequest(ctx context.Context, id int64) (ExtraRequest, error) {
	r, err := scanRequest(s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM extra_attempt_requests WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ExtraRequest{}, fmt.Errorf("extra attempt request %d: %w", id, ErrNotFound)
	}
	return r, err
}

// ListRequests returns requests newest first; empty filters match all.
func (s *SQLStore) ListRequests(ctx context.Context, status RequestStatus, userID string) ([]ExtraRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM extra_attempt_requests WHERE 1=1`
	var args []any
	if status != "" {
		args = append(args, string(status))
		q += fmt.Sprintf(` AND status=$%d`, len(args))
	}
	if userID != "" {
		args = append(args, userID)
		q += fmt.Sprintf(` AND user_id=$%d`, len(args))
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ExtraRequest{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DecideRequest approves or rejects a pending request.
func (s *SQLStore) DecideRequest(ctx context.Context, id int64, st RequestStatus, response, by string) (ExtraRequest, error) {
	if st != Approved && st != Rejected {
		return ExtraRequest{}, fmt.Errorf("%w: status must be approved or rejected", ErrInvalid)
	}
	now := s.now().Unix()
	res, err := s.db.ExecContext(ctx, `UPDATE extra_attempt_requests SET status=$1, admin_response=$2, processed_by=$3,
		processed_at=$4, updated_at=$4 WHERE id=$5 AND status=$6`,
		string(st), response, by, now, id, string(Pending))
	if err != nil {
		return ExtraRequest{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return ExtraRequest{}, err
	} else if n == 0 {
		if _, err := s.GetRequest(ctx, id); err != nil {
			return ExtraRequest{}, err
		}
		return ExtraRequest{}, fmt.Errorf("%w: request %d was already processed", ErrConflict, id)
	}
	return s.GetRequest(ctx, id)
}
