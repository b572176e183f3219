package testbank

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unicover/unicover-lms/internal/lang"
	"github.com/unicover/unicover-lms/internal/question"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrConflict = errors.New("conflict")
)

type Test struct {
	ID                     int64     `json:"id"`
	Title                  string    `json:"title"`
	TitleKZ                string    `json:"title_kz"`
	TitleEN                string    `json:"title_en"`
	CourseID               *int64    `json:"course_id"`
	CategoryID             *int64    `json:"category_id"`
	Language               lang.Code `json:"language"`
	PassingScore           int       `json:"passing_score"` // percent
	TimeLimit              *int      `json:"time_limit"`    // minutes
	MaxAttempts            int       `json:"max_attempts"`
	IsActive               bool      `json:"is_active"`
	IsStandalone           bool      `json:"is_standalone"`
	RequiresVideoRecording bool      `json:"requires_video_recording"`
	QuestionsCount         int       `json:"questions_count"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`

	Questions []question.APIQuestion `json:"questions,omitempty"`
}

// NewTest returns a Test carrying the defaults a request body is decoded over.
func NewTest() Test {
	return Test{
		Language:     lang.Russian,
		PassingScore: 80,
		MaxAttempts:  3,
		IsActive:     true,
	}
}

func (t Test) LocalizedTitle(l lang.Code) string {
	return lang.Pick(l, t.Title, t.TitleKZ, t.TitleEN)
}

// MaxScore is the sum of question weights.
func (t Test) MaxScore() int {
	n := 0
	for _, q := range t.Questions {
		n += q.Weight
	}
	return n
}

func (t Test) Validate() error {
	var problems []string
	if strings.TrimSpace(t.Title) == "" {
		problems = append(problems, "title is required")
	}
	if !t.Language.Valid() {
		problems = append(problems, fmt.Sprintf("unknown language %q", t.Language))
	}
	if t.PassingScore < 0 || t.PassingScore > 100 {
		problems = append(problems, "passing_score must be between 0 and 100")
	}
	if t.MaxAttempts < 1 {
		problems = append(problems, "max_attempts must be at least 1")
	}
	if t.TimeLimit != nil && *t.TimeLimit < 0 {
		problems = append(problems, "time_limit must not be negative")
	}
	return invalid(problems)
}

// validateQuestion mirrors what the backend accepts; correctness encoding is
// the adapter's business, not the store's.
func validateQuestion(q question.APIQuestion) error {
	var problems []string
	if !q.Type.Known() {
		problems = append(problems, fmt.Sprintf("unknown question type %q", q.Type))
	}
	if strings.TrimSpace(q.Text) == "" {
		problems = append(problems, "text is required")
	}
	if q.Weight < 1 {
		problems = append(problems, "weight must be at least 1")
	}
	for i, o := range q.Options {
		if strings.TrimSpace(o.Text) == "" {
			problems = append(problems, fmt.Sprintf("option %d has no text", i+1))
		}
	}
	if q.Order < 0 {
		problems = append(problems, "order must not be negative")
	}
	return invalid(problems)
}

func invalid(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

type ListOpts struct {
	Q          string
	Language   lang.Code // empty: any
	CategoryID int64
	CourseID   int64
	Standalone bool // only standalone tests
	ActiveOnly bool
	Page       int // 1-based
	PageSize   int
}

func (o ListOpts) limitOffset() (int, int) {
	size := o.PageSize
	if size <= 0 {
		size = 20
	}
	if size > 200 {
		size = 200
	}
	page := o.Page
	if page < 1 {
		page = 1
	}
	return size, (page - 1) * size
}
