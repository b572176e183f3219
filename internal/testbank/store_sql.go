package testbank

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/unicover/unicover-lms/internal/db"
	"github.com/unicover/unicover-lms/internal/question"
)

type Store interface {
	CreateTest(ctx context.Context, t Test) (Test, error)
	GetTest(ctx context.Context, id int64) (Test, error) // with questions
	UpdateTest(ctx context.Context, t Test) (Test, error)
	DeleteTest(ctx context.Context, id int64) error
	ListTests(ctx context.Context, opts ListOpts) ([]Test, int, error)

	ListQuestions(ctx context.Context, testID int64) ([]question.APIQuestion, error)
	GetQuestion(ctx context.Context, testID, id int64) (question.APIQuestion, error)
	CreateQuestion(ctx context.Context, testID int64, q question.APIQuestion) (question.APIQuestion, error)
	UpdateQuestion(ctx context.Context, testID, id int64, q question.APIQuestion) (question.APIQuestion, error)
	DeleteQuestion(ctx context.Context, testID, id int64) error
}

type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(h *sql.DB) *SQLStore {
	return &SQLStore{db: h, now: time.Now}
}

const testColumns = `t.id, t.title, t.title_kz, t.title_en, t.course_id, t.category_id, t.language,
	t.passing_score, t.time_limit, t.max_attempts, t.is_active, t.is_standalone,
	t.requires_video_recording, t.created_at, t.updated_at,
	(SELECT COUNT(*) FROM questions q WHERE q.test_id = t.id)`

type scanner interface{ Scan(dest ...any) error }

func scanTest(row scanner) (Test, error) {
	var t Test
	var created, updated int64
	err := row.Scan(&t.ID, &t.Title, &t.TitleKZ, &t.TitleEN, &t.CourseID, &t.CategoryID, &t.Language,
		&t.PassingScore, &t.TimeLimit, &t.MaxAttempts, &t.IsActive, &t.IsStandalone,
		&t.RequiresVideoRecording, &created, &updated, &t.QuestionsCount)
	if err != nil {
		return Test{}, err
	}
	t.CreatedAt = time.Unix(created, 0).UTC()
	t.UpdatedAt = time.Unix(updated, 0).UTC()
	return t, nil
}

func (s *SQLStore) CreateTest(ctx context.Context, t Test) (Test, error) {
	if err := t.Validate(); err != nil {
		return Test{}, err
	}
	now := s.now().Unix()
	var id int64
	err := s.db.QueryRowContext(ctx, `INSERT INTO tests
		(title, title_kz, title_en, course_id, category_id, language, passing_score, time_limit,
		 max_attempts, is_active, is_standalone, requires_video_recording, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13) RETURNING id`,
		t.Title, t.TitleKZ, t.TitleEN, t.CourseID, t.CategoryID, string(t.Language), t.PassingScore, t.TimeLimit,
		t.MaxAttempts, t.IsActive, t.IsStandalone, t.RequiresVideoRecording, now).Scan(&id)
	if err != nil {
		return Test{}, fmt.Errorf("create test: %w", refErr(err))
	}
	return s.GetTest(ctx, id)
}

func (s *SQLStore) GetTest(ctx context.Context, id int64) (Test, error) {
	t, err := scanTest(s.db.QueryRowContext(ctx, `SELECT `+testColumns+` FROM tests t WHERE t.id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, fmt.Errorf("test %d: %w", id, ErrNotFound)
		}
		return Test{}, err
	}
	t.Questions, err = s.ListQuestions(ctx, id)
	if err != nil {
		return Test{}, err
	}
	return t, nil
}

func (s *SQLStore) UpdateTest(ctx context.Context, t Test) (Test, error) {
	if err := t.Validate(); err != nil {
		return Test{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE tests SET
		title=$1, title_kz=$2, title_en=$3, course_id=$4, category_id=$5, language=$6, passing_score=$7,
		time_limit=$8, max_attempts=$9, is_active=$10, is_standalone=$11, requires_video_recording=$12,
		updated_at=$13 WHERE id=$14`,
		t.Title, t.TitleKZ, t.TitleEN, t.CourseID, t.CategoryID, string(t.Language), t.PassingScore,
		t.TimeLimit, t.MaxAttempts, t.IsActive, t.IsStandalone, t.RequiresVideoRecording,
		s.now().Unix(), t.ID)
	if err != nil {
		return Test{}, fmt.Errorf("update test: %w", refErr(err))
	}
	if err := mustAffect(res, "test", t.ID); err != nil {
		return Test{}, err
	}
	return s.GetTest(ctx, t.ID)
}

func (s *SQLStore) DeleteTest(ctx context.Context, id int64) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		// explicit so postgres and sqlite without foreign_keys behave the same
		if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE test_id=$1`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE courses SET final_test_id=NULL WHERE final_test_id=$1`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM tests WHERE id=$1`, id)
		if err != nil {
			return err
		}
		return mustAffect(res, "test", id)
	})
}

func (s *SQLStore) ListTests(ctx context.Context, o ListOpts) ([]Test, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if q := strings.TrimSpace(o.Q); q != "" {
		// sqlite LOWER only folds ASCII, so also match the raw needle
		where = append(where, "(LOWER(t.title) LIKE "+arg("%"+strings.ToLower(q)+"%")+" OR t.title LIKE "+arg("%"+q+"%")+")")
	}
	if o.Language != "" {
		where = append(where, "t.language="+arg(string(o.Language)))
	}
	if o.CategoryID > 0 {
		where = append(where, "t.category_id="+arg(o.CategoryID))
	}
	if o.CourseID > 0 {
		where = append(where, "t.course_id="+arg(o.CourseID))
	}
	if o.Standalone {
		where = append(where, "t.is_standalone="+arg(true))
	}
	if o.ActiveOnly {
		where = append(where, "t.is_active="+arg(true))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tests t`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := o.limitOffset()
	query := `SELECT ` + testColumns + ` FROM tests t` + cond +
		` ORDER BY t.created_at DESC, t.id DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Test{}
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

/* ---------------------------------- questions ---------------------------------- */

func (s *SQLStore) ListQuestions(ctx context.Context, testID int64) ([]question.APIQuestion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, type, text, options_json, position, weight
		FROM questions WHERE test_id=$1 ORDER BY position, id`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []question.APIQuestion{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func scanQuestion(row scanner) (question.APIQuestion, error) {
	var (
		q     question.APIQuestion
		id    int64
		typ   string
		ojson string
	)
	if err := row.Scan(&id, &typ, &q.Text, &ojson, &q.Order, &q.Weight); err != nil {
		return question.APIQuestion{}, err
	}
	q.ID = strconv.FormatInt(id, 10)
	q.Type = question.Type(typ)
	if err := json.Unmarshal([]byte(ojson), &q.Options); err != nil || q.Options == nil {
		q.Options = []question.Option{}
	}
	return q, nil
}

func (s *SQLStore) GetQuestion(ctx context.Context, testID, id int64) (question.APIQuestion, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx, `SELECT id, type, text, options_json, position, weight
		FROM questions WHERE id=$1 AND test_id=$2`, id, testID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return question.APIQuestion{}, fmt.Errorf("question %d of test %d: %w", id, testID, ErrNotFound)
		}
		return question.APIQuestion{}, err
	}
	return q, nil
}

// CreateQuestion adds q to the test. Order 0 means "after the last one"; an
// order already in use inserts q there and shifts the later questions down.
func (s *SQLStore) CreateQuestion(ctx context.Context, testID int64, q question.APIQuestion) (question.APIQuestion, error) {
	q = normalizeQuestion(q)
	if err := validateQuestion(q); err != nil {
		return question.APIQuestion{}, err
	}
	q.Options = assignOptionIDs(q.Options)
	var id int64
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM tests WHERE id=$1`, testID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("test %d: %w", testID, ErrNotFound)
			}
			return err
		}
		if q.Order == 0 {
			var max sql.NullInt64
			if err := tx.QueryRowContext(ctx, `SELECT MAX(position) FROM questions WHERE test_id=$1`, testID).Scan(&max); err != nil {
				return err
			}
			q.Order = int(max.Int64) + 1
		} else if err := shiftFrom(ctx, tx, testID, q.Order); err != nil {
			return err
		}
		oj, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		now := s.now().Unix()
		return tx.QueryRowContext(ctx, `INSERT INTO questions (test_id, type, text, options_json, position, weight, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$7) RETURNING id`,
			testID, string(q.Type), q.Text, string(oj), q.Order, q.Weight, now).Scan(&id)
	})
	if err != nil {
		return question.APIQuestion{}, orderErr(err, q.Order)
	}
	return s.GetQuestion(ctx, testID, id)
}

// UpdateQuestion replaces the question. Order 0 keeps the current position;
// moving onto an order held by another question swaps the two.
func (s *SQLStore) UpdateQuestion(ctx context.Context, testID, id int64, q question.APIQuestion) (question.APIQuestion, error) {
	q = normalizeQuestion(q)
	if err := validateQuestion(q); err != nil {
		return question.APIQuestion{}, err
	}
	cur, err := s.GetQuestion(ctx, testID, id)
	if err != nil {
		return question.APIQuestion{}, err
	}
	if q.Order == 0 {
		q.Order = cur.Order
	}
	q.Options = assignOptionIDs(keepOptionIDs(cur.Options, q.Options))
	oj, err := json.Marshal(q.Options)
	if err != nil {
		return question.APIQuestion{}, err
	}
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if q.Order != cur.Order {
			if err := swapInto(ctx, tx, testID, id, cur.Order, q.Order); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `UPDATE questions SET type=$1, text=$2, options_json=$3, position=$4, weight=$5, updated_at=$6
			WHERE id=$7 AND test_id=$8`,
			string(q.Type), q.Text, string(oj), q.Order, q.Weight, s.now().Unix(), id, testID)
		return err
	})
	if err != nil {
		return question.APIQuestion{}, orderErr(err, q.Order)
	}
	return s.GetQuestion(ctx, testID, id)
}

// shiftFrom frees position pos by moving every question at or after it one
// step down. Positions go through negatives so the unique index holds
// row by row.
func shiftFrom(ctx context.Context, tx *sql.Tx, testID int64, pos int) error {
	if _, err := tx.ExecContext(ctx, `UPDATE questions SET position = -(position + 1) WHERE test_id=$1 AND position >= $2`, testID, pos); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `UPDATE questions SET position = -position WHERE test_id=$1 AND position < 0`, testID)
	return err
}

// swapInto hands position to of question id over by giving its current
// holder the old position from.
func swapInto(ctx context.Context, tx *sql.Tx, testID, id int64, from, to int) error {
	var holder int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM questions WHERE test_id=$1 AND position=$2`, testID, to).Scan(&holder)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE questions SET position=-1 WHERE id=$1`, id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE questions SET position=$1 WHERE id=$2`, from, holder)
	return err
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, testID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1 AND test_id=$2`, id, testID)
	if err != nil {
		return err
	}
	return mustAffect(res, "question", id)
}

func normalizeQuestion(q question.APIQuestion) question.APIQuestion {
	if q.Weight == 0 {
		q.Weight = 1
	}
	if q.Options == nil {
		q.Options = []question.Option{}
	}
	return q
}

// assignOptionIDs gives every option without an id a fresh "opt-N" that does
// not collide with ids already present.
func assignOptionIDs(opts []question.Option) []question.Option {
	out := append([]question.Option{}, opts...)
	used := map[string]bool{}
	for _, o := range out {
		if o.ID != "" {
			used[o.ID] = true
		}
	}
	n := 0
	for i := range out {
		if out[i].ID != "" {
			continue
		}
		for {
			n++
			id := "opt-" + strconv.Itoa(n)
			if !used[id] {
				out[i].ID = id
				used[id] = true
				break
			}
		}
	}
	return out
}

// keepOptionIDs lets an update that resends options by text alone keep the
// ids already stored for those texts. Ids given explicitly are left alone.
func keepOptionIDs(stored, incoming []question.Option) []question.Option {
	taken := map[string]bool{}
	for _, o := range incoming {
		if o.ID != "" {
			taken[o.ID] = true
		}
	}
	out := append([]question.Option{}, incoming...)
	for i := range out {
		if out[i].ID != "" {
			continue
		}
		for _, st := range stored {
			if st.ID != "" && !taken[st.ID] && st.Text == out[i].Text {
				out[i].ID = st.ID
				taken[st.ID] = true
				break
			}
		}
	}
	return out
}

func mustAffect(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}

func orderErr(err error, order int) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: order %d is already taken", ErrConflict, order)
	}
	return err
}

func refErr(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "foreign key") || strings.Contains(msg, "sqlstate 23503") {
		return fmt.Errorf("%w: referenced course or category does not exist", ErrInvalid)
	}
	return err
}

var _ Store = (*SQLStore)(nil)
