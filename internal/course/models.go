// Package course stores the catalogue tree: categories, courses, their
// modules and the lessons inside each module.
package course

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unicover/unicover-lms/internal/lang"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrConflict = errors.New("conflict")
)

type Format string

const (
	Online  Format = "online"
	Offline Format = "offline"
	Blended Format = "blended"
)

type Status string

const (
	InDevelopment Status = "in_development"
	Draft         Status = "draft"
	Published     Status = "published"
)

type LessonType string

const (
	LessonText  LessonType = "text"
	LessonVideo LessonType = "video"
	LessonPDF   LessonType = "pdf"
	LessonQuiz  LessonType = "quiz"
)

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	NameKZ      string    `json:"name_kz"`
	NameEN      string    `json:"name_en"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Order       int       `json:"order"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c Category) LocalizedName(l lang.Code) string {
	return lang.Pick(l, c.Name, c.NameKZ, c.NameEN)
}

type Course struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	TitleKZ          string    `json:"title_kz"`
	TitleEN          string    `json:"title_en"`
	Description      string    `json:"description"`
	DescriptionKZ    string    `json:"description_kz"`
	DescriptionEN    string    `json:"description_en"`
	CategoryID       *int64    `json:"category"`
	Duration         int       `json:"duration"` // hours
	Format           Format    `json:"format"`
	PassingScore     int       `json:"passing_score"`
	MaxAttempts      int       `json:"max_attempts"`
	HasTimer         bool      `json:"has_timer"`
	TimerMinutes     *int      `json:"timer_minutes"`
	PDEKCommission   string    `json:"pdek_commission"`
	Status           Status    `json:"status"`
	Language         lang.Code `json:"language"`
	FinalTestID      *int64    `json:"final_test"`
	IsStandaloneTest bool      `json:"is_standalone_test"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Modules []Module `json:"modules,omitempty"`
}

func NewCourse() Course {
	return Course{
		Format:       Online,
		PassingScore: 80,
		MaxAttempts:  3,
		Status:       InDevelopment,
		Language:     lang.Russian,
	}
}

// LocalizedTitle falls back to the Russian title when the translation is empty.
func (c Course) LocalizedTitle(l lang.Code) string {
	return lang.Pick(l, c.Title, c.TitleKZ, c.TitleEN)
}

func (c Course) LocalizedDescription(l lang.Code) string {
	return lang.Pick(l, c.Description, c.DescriptionKZ, c.DescriptionEN)
}

type Module struct {
	ID          int64     `json:"id"`
	CourseID    int64     `json:"course"`
	Title       string    `json:"title"`
	TitleKZ     string    `json:"title_kz"`
	TitleEN     string    `json:"title_en"`
	Description string    `json:"description"`
	Language    lang.Code `json:"language"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Lessons []Lesson `json:"lessons"`
}

func NewModule() Module {
	return Module{Language: lang.Russian}
}

type Lesson struct {
	ID            int64      `json:"id"`
	ModuleID      int64      `json:"module"`
	Title         string     `json:"title"`
	TitleKZ       string     `json:"title_kz"`
	TitleEN       string     `json:"title_en"`
	Description   string     `json:"description"`
	Type          LessonType `json:"type"`
	Content       string     `json:"content"`
	Language      lang.Code  `json:"language"`
	VideoURL      string     `json:"video_url"`
	ThumbnailURL  string     `json:"thumbnail_url"`
	PDFURL        string     `json:"pdf_url"`
	TestID        string     `json:"test_id"`
	Duration      int        `json:"duration"` // minutes
	Order         int        `json:"order"`
	Required      bool       `json:"required"`
	AllowDownload bool       `json:"allow_download"`
	TrackProgress bool       `json:"track_progress"`
	PassingScore  *int       `json:"passing_score"`
	MaxAttempts   *int       `json:"max_attempts"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func NewLesson() Lesson {
	return Lesson{Type: LessonText, Language: lang.Russian, Required: true}
}

type ListOpts struct {
	Q          string
	Status     Status
	CategoryID int64
	Language   lang.Code
	Page       int
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

func (c Category) Validate() error {
	var p []string
	if strings.TrimSpace(c.Name) == "" {
		p = append(p, "name is required")
	}
	return invalid(p)
}

func (c Course) Validate() error {
	var p []string
	if strings.TrimSpace(c.Title) == "" {
		p = append(p, "title is required")
	}
	switch c.Format {
	case Online, Offline, Blended:
	default:
		p = append(p, fmt.Sprintf("unknown format %q", c.Format))
	}
	switch c.Status {
	case InDevelopment, Draft, Published:
	default:
		p = append(p, fmt.Sprintf("unknown status %q", c.Status))
	}
	if !c.Language.Valid() {
		p = append(p, fmt.Sprintf("unknown language %q", c.Language))
	}
	if c.PassingScore < 0 || c.PassingScore > 100 {
		p = append(p, "passing_score must be between 0 and 100")
	}
	if c.MaxAttempts < 1 {
		p = append(p, "max_attempts must be at least 1")
	}
	if c.HasTimer && (c.TimerMinutes == nil || *c.TimerMinutes <= 0) {
		p = append(p, "timer_minutes is required when has_timer is set")
	}
	return invalid(p)
}

func (m Module) Validate() error {
	var p []string
	if strings.TrimSpace(m.Title) == "" {
		p = append(p, "title is required")
	}
	if !m.Language.Valid() {
		p = append(p, fmt.Sprintf("unknown language %q", m.Language))
	}
	if m.Order < 0 {
		p = append(p, "order must not be negative")
	}
	return invalid(p)
}

func (l Lesson) Validate() error {
	var p []string
	if strings.TrimSpace(l.Title) == "" {
		p = append(p, "title is required")
	}
	switch l.Type {
	case LessonText, LessonVideo, LessonPDF, LessonQuiz:
	default:
		p = append(p, fmt.Sprintf("unknown lesson type %q", l.Type))
	}
	if !l.Language.Valid() {
		p = append(p, fmt.Sprintf("unknown language %q", l.Language))
	}
	if l.Type == LessonVideo && l.VideoURL == "" {
		p = append(p, "video_url is required for video lessons")
	}
	if l.Type == LessonQuiz && l.TestID == "" {
		p = append(p, "test_id is required for quiz lessons")
	}
	if l.Order < 0 {
		p = append(p, "order must not be negative")
	}
	return invalid(p)
}

func invalid(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}
