package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
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

type scanner interface{ Scan(dest ...any) error }

func unix(v int64) time.Time { return time.Unix(v, 0).UTC() }

func notFound(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
}

func affected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(what, id)
	}
	return nil
}

func writeErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "foreign key") || strings.Contains(msg, "sqlstate 23503") {
		return fmt.Errorf("%w: %s references a missing or protected row", ErrInvalid, what)
	}
	return err
}

/* ---------------------------------- categories ---------------------------------- */

const categoryColumns = `id, name, name_kz, name_en, description, icon, position, is_active, created_at, updated_at`

func scanCategory(row scanner) (Category, error) {
	var c Category
	var created, updated int64
	if err := row.Scan(&c.ID, &c.Name, &c.NameKZ, &c.NameEN, &c.Description, &c.Icon, &c.Order,
		&c.IsActive, &created, &updated); err != nil {
		return Category{}, err
	}
	c.CreatedAt, c.UpdatedAt = unix(created), unix(updated)
	return c, nil
}

func (s *SQLStore) CreateCategory(ctx context.Context, c Category) (Category, error) {
	if err := c.Validate(); err != nil {
		return Category{}, err
	}
	now := s.now().Unix()
	var id int64
	err := s.db.QueryRowContext(ctx, `INSERT INTO categories (name, name_kz, name_en, description, icon, position, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8) RETURNING id`,
		c.Name, c.NameKZ, c.NameEN, c.Description, c.Icon, c.Order, c.IsActive, now).Scan(&id)
	if err != nil {
		return Category{}, writeErr(err, "category")
	}
	return s.GetCategory(ctx, id)
}

func (s *SQLStore) GetCategory(ctx context.Context, id int64) (Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, notFound("category", id)
	}
	return c, err
}

func (s *SQLStore) UpdateCategory(ctx context.Context, c Category) (Category, error) {
	if err := c.Validate(); err != nil {
		return Category{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE categories SET name=$1, name_kz=$2, name_en=$3, description=$4, icon=$5,
		position=$6, is_active=$7, updated_at=$8 WHERE id=$9`,
		c.Name, c.NameKZ, c.NameEN, c.Description, c.Icon, c.Order, c.IsActive, s.now().Unix(), c.ID)
	if err != nil {
		return Category{}, writeErr(err, "category")
	}
	if err := affected(res, "category", c.ID); err != nil {
		return Category{}, err
	}
	return s.GetCategory(ctx, c.ID)
}

// DeleteCategory refuses while courses or tests still point at the category.
func (s *SQLStore) DeleteCategory(ctx context.Context, id int64) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM courses WHERE category_id=$1) + (SELECT COUNT(*) FROM tests WHERE category_id=$1)`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: category %d is still in use", ErrConflict, id)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return writeErr(err, "category")
	}
	return affected(res, "category", id)
}

func (s *SQLStore) ListCategories(ctx context.Context, activeOnly bool) ([]Category, error) {
	q := `SELECT ` + categoryColumns + ` FROM categories`
	var args []any
	if activeOnly {
		q += ` WHERE is_active=$1`
		args = append(args, true)
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY position, name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

/* ---------------------------------- courses ---------------------------------- */

const courseColumns = `id, title, title_kz, title_en, description, description_kz, description_en, category_id,
	duration, format, passing_score, max_attempts, has_timer, timer_minutes, pdek_commission, status, language,
	final_test_id, is_standalone_test, created_at, updated_at`

func scanCourse(row scanner) (Course, error) {
	var c Course
	var created, updated int64
	if err := row.Scan(&c.ID, &c.Title, &c.TitleKZ, &c.TitleEN, &c.Description, &c.DescriptionKZ, &c.DescriptionEN,
		&c.CategoryID, &c.Duration, &c.Format, &c.PassingScore, &c.MaxAttempts, &c.HasTimer, &c.TimerMinutes,
		&c.PDEKCommission, &c.Status, &c.Language, &c.FinalTestID, &c.IsStandaloneTest, &created, &updated); err != nil {
		return Course{}, err
	}
	c.CreatedAt, c.UpdatedAt = unix(created), unix(updated)
	return c, nil
}

func (s *SQLStore) CreateCourse(ctx context.Context, c Course) (Course, error) {
	if err := c.Validate(); err != nil {
		return Course{}, err
	}
	now := s.now().Unix()
	var id int64
	err := s.db.QueryRowContext(ctx, `INSERT INTO courses (title, title_kz, title_en, description, description_kz, description_en,
		category_id, duration, format, passing_score, max_attempts, has_timer, timer_minutes, pdek_commission, status, language,
		final_test_id, is_standalone_test, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$19) RETURNING id`,
		c.Title, c.TitleKZ, c.TitleEN, c.Description, c.DescriptionKZ, c.DescriptionEN,
		c.CategoryID, c.Duration, string(c.Format), c.PassingScore, c.MaxAttempts, c.HasTimer, c.TimerMinutes,
		c.PDEKCommission, string(c.Status), string(c.Language), c.FinalTestID, c.IsStandaloneTest, now).Scan(&id)
	if err != nil {
		return Course{}, writeErr(err, "course")
	}
	return s.GetCourse(ctx, id)
}

// GetCourse returns the course with its modules and their lessons.
func (s *SQLStore) GetCourse(ctx context.Context, id int64) (Course, error) {
	c, err := scanCourse(s.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, notFound("course", id)
	}
	if err != nil {
		return Course{}, err
	}
	mods, err := s.ListModules(ctx, id)
	if err != nil {
		return Course{}, err
	}
	lessons, err := s.lessonsOfCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	for i := range mods {
		mods[i].Lessons = lessons[mods[i].ID]
		if mods[i].Lessons == nil {
			mods[i].Lessons = []Lesson{}
		}
	}
	c.Modules = mods
	return c, nil
}

func (s *SQLStore) UpdateCourse(ctx context.Context, c Course) (Course, error) {
	if err := c.Validate(); err != nil {
		return Course{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE courses SET title=$1, title_kz=$2, title_en=$3, description=$4,
		description_kz=$5, description_en=$6, category_id=$7, duration=$8, format=$9, passing_score=$10, max_attempts=$11,
		has_timer=$12, timer_minutes=$13, pdek_commission=$14, status=$15, language=$16, final_test_id=$17,
		is_standalone_test=$18, updated_at=$19 WHERE id=$20`,
		c.Title, c.TitleKZ, c.TitleEN, c.Description, c.DescriptionKZ, c.DescriptionEN,
		c.CategoryID, c.Duration, string(c.Format), c.PassingScore, c.MaxAttempts, c.HasTimer, c.TimerMinutes,
		c.PDEKCommission, string(c.Status), string(c.Language), c.FinalTestID, c.IsStandaloneTest, s.now().Unix(), c.ID)
	if err != nil {
		return Course{}, writeErr(err, "course")
	}
	if err := affected(res, "course", c.ID); err != nil {
		return Course{}, err
	}
	return s.GetCourse(ctx, c.ID)
}

func (s *SQLStore) DeleteCourse(ctx context.Context, id int64) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE module_id IN (SELECT id FROM modules WHERE course_id=$1)`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM modules WHERE course_id=$1`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE tests SET course_id=NULL WHERE course_id=$1`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE id=$1`, id)
		if err != nil {
			return err
		}
		return affected(res, "course", id)
	})
}

// ListCourses returns one page of courses (without modules) and the total count.
func (s *SQLStore) ListCourses(ctx context.Context, o ListOpts) ([]Course, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if q := strings.TrimSpace(o.Q); q != "" {
		lower, raw := arg("%"+strings.ToLower(q)+"%"), arg("%"+q+"%")
		where = append(where, "(LOWER(title) LIKE "+lower+" OR title LIKE "+raw+" OR LOWER(description) LIKE "+lower+")")
	}
	if o.Status != "" {
		where = append(where, "status="+arg(string(o.Status)))
	}
	if o.CategoryID > 0 {
		where = append(where, "category_id="+arg(o.CategoryID))
	}
	if o.Language != "" {
		where = append(where, "language="+arg(string(o.Language)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, offset := o.limitOffset()
	rows, err := s.db.QueryContext(ctx, `SELECT `+courseColumns+` FROM courses`+cond+
		` ORDER BY created_at DESC, id DESC LIMIT `+arg(limit)+` OFFSET `+arg(offset), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

/* ---------------------------------- modules ---------------------------------- */

const moduleColumns = `id, course_id, title, title_kz, title_en, description, language, position, created_at, updated_at`

func scanModule(row scanner) (Module, error) {
	var m Module
	var created, updated int64
	if err := row.Scan(&m.ID, &m.CourseID, &m.Title, &m.TitleKZ, &m.TitleEN, &m.Description, &m.Language,
		&m.Order, &created, &updated); err != nil {
		return Module{}, err
	}
	m.CreatedAt, m.UpdatedAt = unix(created), unix(updated)
	return m, nil
}

func (s *SQLStore) ListModules(ctx context.Context, courseID int64) ([]Module, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+moduleColumns+` FROM modules WHERE course_id=$1 ORDER BY position, id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Module{}
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetModule(ctx context.Context, courseID, id int64) (Module, error) {
	m, err := scanModule(s.db.QueryRowContext(ctx, `SELECT `+moduleColumns+` FROM modules WHERE id=$1 AND course_id=$2`, id, courseID))
	if errors.Is(err, sql.ErrNoRows) {
		return Module{}, notFound("module", id)
	}
	if err != nil {
		return Module{}, err
	}
	m.Lessons, err = s.ListLessons(ctx, id)
	return m, err
}

// CreateModule appends to the course when m.Order is 0.
func (s *SQLStore) CreateModule(ctx context.Context, courseID int64, m Module) (Module, error) {
	if err := m.Validate(); err != nil {
		return Module{}, err
	}
	var id int64
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := exists(ctx, tx, "courses", "course", courseID); err != nil {
			return err
		}
		if m.Order == 0 {
			n, err := nextPosition(ctx, tx, "modules", "course_id", courseID)
			if err != nil {
				return err
			}
			m.Order = n
		}
		now := s.now().Unix()
		return tx.QueryRowContext(ctx, `INSERT INTO modules (course_id, title, title_kz, title_en, description, language, position, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8) RETURNING id`,
			courseID, m.Title, m.TitleKZ, m.TitleEN, m.Description, string(m.Language), m.Order, now).Scan(&id)
	})
	if err != nil {
		return Module{}, writeErr(err, "module order")
	}
	return s.GetModule(ctx, courseID, id)
}

func (s *SQLStore) UpdateModule(ctx context.Context, courseID int64, m Module) (Module, error) {
	if err := m.Validate(); err != nil {
		return Module{}, err
	}
	cur, err := s.GetModule(ctx, courseID, m.ID)
	if err != nil {
		return Module{}, err
	}
	if m.Order == 0 {
		m.Order = cur.Order
	}
	_, err = s.db.ExecContext(ctx, `UPDATE modules SET title=$1, title_kz=$2, title_en=$3, description=$4, language=$5,
		position=$6, updated_at=$7 WHERE id=$8 AND course_id=$9`,
		m.Title, m.TitleKZ, m.TitleEN, m.Description, string(m.Language), m.Order, s.now().Unix(), m.ID, courseID)
	if err != nil {
		return Module{}, writeErr(err, "module order")
	}
	return s.GetModule(ctx, courseID, m.ID)
}

func (s *SQLStore) DeleteModule(ctx context.Context, courseID, id int64) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE module_id IN (SELECT id FROM modules WHERE id=$1 AND course_id=$2)`, id, courseID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM modules WHERE id=$1 AND course_id=$2`, id, courseID)
		if err != nil {
			return err
		}
		return affected(res, "module", id)
	})
}

/* ---------------------------------- lessons ---------------------------------- */

const lessonColumns = `id, module_id, title, title_kz, title_en, description, type, content, language, video_url,
	thumbnail_url, pdf_url, test_id, duration, position, required, allow_download, track_progress, passing_score,
	max_attempts, created_at, updated_at`

func scanLesson(row scanner) (Lesson, error) {
	var l Lesson
	var created, updated int64
	if err := row.Scan(&l.ID, &l.ModuleID, &l.Title, &l.TitleKZ, &l.TitleEN, &l.Description, &l.Type, &l.Content,
		&l.Language, &l.VideoURL, &l.ThumbnailURL, &l.PDFURL, &l.TestID, &l.Duration, &l.Order, &l.Required,
		&l.AllowDownload, &l.TrackProgress, &l.PassingScore, &l.MaxAttempts, &created, &updated); err != nil {
		return Lesson{}, err
	}
	l.CreatedAt, l.UpdatedAt = unix(created), unix(updated)
	return l, nil
}

func (s *SQLStore) ListLessons(ctx context.Context, moduleID int64) ([]Lesson, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE module_id=$1 ORDER BY position, id`, moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLStore) lessonsOfCourse(ctx context.Context, courseID int64) (map[int64][]Lesson, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+lessonColumns+` FROM lessons
		WHERE module_id IN (SELECT id FROM modules WHERE course_id=$1) ORDER BY module_id, position, id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int64][]Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		out[l.ModuleID] = append(out[l.ModuleID], l)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetLesson(ctx context.Context, moduleID, id int64) (Lesson, error) {
	l, err := scanLesson(s.db.QueryRowContext(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id=$1 AND module_id=$2`, id, moduleID))
	if errors.Is(err, sql.ErrNoRows) {
		return Lesson{}, notFound("lesson", id)
	}
	return l, err
}

func (s *SQLStore) CreateLesson(ctx context.Context, moduleID int64, l Lesson) (Lesson, error) {
	if err := l.Validate(); err != nil {
		return Lesson{}, err
	}
	var id int64
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := exists(ctx, tx, "modules", "module", moduleID); err != nil {
			return err
		}
		if l.Order == 0 {
			n, err := nextPosition(ctx, tx, "lessons", "module_id", moduleID)
			if err != nil {
				return err
			}
			l.Order = n
		}
		now := s.now().Unix()
		return tx.QueryRowContext(ctx, `INSERT INTO lessons (module_id, title, title_kz, title_en, description, type, content,
			language, video_url, thumbnail_url, pdf_url, test_id, duration, position, required, allow_download, track_progress,
			passing_score, max_attempts, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$20) RETURNING id`,
			moduleID, l.Title, l.TitleKZ, l.TitleEN, l.Description, string(l.Type), l.Content, string(l.Language),
			l.VideoURL, l.ThumbnailURL, l.PDFURL, l.TestID, l.Duration, l.Order, l.Required, l.AllowDownload,
			l.TrackProgress, l.PassingScore, l.MaxAttempts, now).Scan(&id)
	})
	if err != nil {
		return Lesson{}, writeErr(err, "lesson order")
	}
	return s.GetLesson(ctx, moduleID, id)
}

func (s *SQLStore) UpdateLesson(ctx context.Context, moduleID int64, l Lesson) (Lesson, error) {
	if err := l.Validate(); err != nil {
		return Lesson{}, err
	}
	cur, err := s.GetLesson(ctx, moduleID, l.ID)
	if err != nil {
		return Lesson{}, err
	}
	if l.Order == 0 {
		l.Order = cur.Order
	}
	_, err = s.db.ExecContext(ctx, `UPDATE lessons SET title=$1, title_kz=$2, title_en=$3, description=$4, type=$5,
		content=$6, language=$7, video_url=$8, thumbnail_url=$9, pdf_url=$10, test_id=$11, duration=$12, position=$13,
		required=$14, allow_download=$15, track_progress=$16, passing_score=$17, max_attempts=$18, updated_at=$19
		WHERE id=$20 AND module_id=$21`,
		l.Title, l.TitleKZ, l.TitleEN, l.Description, string(l.Type), l.Content, string(l.Language), l.VideoURL,
		l.ThumbnailURL, l.PDFURL, l.TestID, l.Duration, l.Order, l.Required, l.AllowDownload, l.TrackProgress,
		l.PassingScore, l.MaxAttempts, s.now().Unix(), l.ID, moduleID)
	if err != nil {
		return Lesson{}, writeErr(err, "lesson order")
	}
	return s.GetLesson(ctx, moduleID, l.ID)
}

func (s *SQLStore) DeleteLesson(ctx context.Context, moduleID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lessons WHERE id=$1 AND module_id=$2`, id, moduleID)
	if err != nil {
		return err
	}
	return affected(res, "lesson", id)
}

/* ---------------------------------- helpers ---------------------------------- */

// table and column names below are constants from this file, never user input
func exists(ctx context.Context, tx *sql.Tx, table, what string, id int64) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id=$1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(what, id)
	}
	return err
}

func nextPosition(ctx context.Context, tx *sql.Tx, table, parentCol string, parentID int64) (int, error) {
	var max sql.NullInt64
	err := tx.QueryRowContext(ctx, `SELECT MAX(position) FROM `+table+` WHERE `+parentCol+`=$1`, parentID).Scan(&max)
	return int(max.Int64) + 1, err
}
