package client

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/unicover/unicover-lms/internal/lang"
	"github.com/unicover/unicover-lms/internal/question"
	"github.com/unicover/unicover-lms/internal/testbank"
)

// UITest is a test as the editor holds it: metadata plus questions in the
// UI shape. It is also the YAML file format of the admin CLI.
type UITest struct {
	ID                     int64                 `json:"id,omitempty" yaml:"id,omitempty"`
	Title                  string                `json:"title" yaml:"title"`
	TitleKZ                string                `json:"title_kz,omitempty" yaml:"title_kz,omitempty"`
	TitleEN                string                `json:"title_en,omitempty" yaml:"title_en,omitempty"`
	CourseID               *int64                `json:"course_id,omitempty" yaml:"course_id,omitempty"`
	CategoryID             *int64                `json:"category_id,omitempty" yaml:"category_id,omitempty"`
	Language               lang.Code             `json:"language" yaml:"language"`
	PassingScore           int                   `json:"passing_score" yaml:"passing_score"`
	TimeLimit              *int                  `json:"time_limit,omitempty" yaml:"time_limit,omitempty"`
	MaxAttempts            int                   `json:"max_attempts" yaml:"max_attempts"`
	IsActive               bool                  `json:"is_active" yaml:"is_active"`
	IsStandalone           bool                  `json:"is_standalone" yaml:"is_standalone"`
	RequiresVideoRecording bool                  `json:"requires_video_recording" yaml:"requires_video_recording"`
	Questions              []question.UIQuestion `json:"questions" yaml:"questions"`
}

// NewUITest carries the same defaults as a test created on the server.
func NewUITest() UITest {
	t := testbank.NewTest()
	return UITest{
		Language:     t.Language,
		PassingScore: t.PassingScore,
		MaxAttempts:  t.MaxAttempts,
		IsActive:     t.IsActive,
	}
}

func (t UITest) record() testbank.Test {
	return testbank.Test{
		ID: t.ID, Title: t.Title, TitleKZ: t.TitleKZ, TitleEN: t.TitleEN,
		CourseID: t.CourseID, CategoryID: t.CategoryID, Language: t.Language,
		PassingScore: t.PassingScore, TimeLimit: t.TimeLimit, MaxAttempts: t.MaxAttempts,
		IsActive: t.IsActive, IsStandalone: t.IsStandalone, RequiresVideoRecording: t.RequiresVideoRecording,
	}
}

// fromServer converts a test as served. Questions of a type without an
// answer encoding are kept with their texts; the error is only returned for
// other failures.
func fromServer(t testbank.Test) (UITest, error) {
	out := UITest{
		ID: t.ID, Title: t.Title, TitleKZ: t.TitleKZ, TitleEN: t.TitleEN,
		CourseID: t.CourseID, CategoryID: t.CategoryID, Language: t.Language,
		PassingScore: t.PassingScore, TimeLimit: t.TimeLimit, MaxAttempts: t.MaxAttempts,
		IsActive: t.IsActive, IsStandalone: t.IsStandalone, RequiresVideoRecording: t.RequiresVideoRecording,
	}
	qs, err := question.FromAPIAll(t.Questions)
	out.Questions = qs
	if err != nil && !onlyUnsupported(err) {
		return out, err
	}
	return out, nil
}

func onlyUnsupported(err error) bool {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			if !errors.Is(e, question.ErrUnsupportedQuestionType) {
				return false
			}
		}
		return true
	}
	return errors.Is(err, question.ErrUnsupportedQuestionType)
}

// QuestionFailure is one question the save could not write.
type QuestionFailure struct {
	Index int    // position in the saved list; -1 for deletions
	ID    string // question id, when it had one
	Op    string // "create", "update", "delete" or "convert"
	Err   error
}

func (f QuestionFailure) Error() string {
	return fmt.Sprintf("question %d (%s) %s: %v", f.Index+1, f.ID, f.Op, f.Err)
}

type SaveReport struct {
	Created  int
	Updated  int
	Deleted  int
	Skipped  int
	Failures []QuestionFailure
}

func (r SaveReport) OK() bool { return len(r.Failures) == 0 }

func (r SaveReport) String() string {
	return fmt.Sprintf("%d created, %d updated, %d deleted, %d skipped, %d failed",
		r.Created, r.Updated, r.Deleted, r.Skipped, len(r.Failures))
}

func (r *SaveReport) fail(f QuestionFailure) {
	log.Printf("save: %v", f)
	r.Failures = append(r.Failures, f)
}

// SaveTest persists t: the test record first, then questions one request at
// a time in list order, each stored at its 1-based list position whatever
// Order it carried. Server questions missing from t are deleted first.
// A question whose id the server knows is updated, any other is created.
// Known questions of a type without an answer encoding are left as stored.
// Question failures land in the report without stopping the save; only a
// failure on the test record or the final reload is returned as an error.
func (c *Client) SaveTest(ctx context.Context, t UITest) (UITest, SaveReport, error) {
	var rep SaveReport

	rec := t.record()
	var err error
	if rec.ID == 0 {
		rec, err = c.CreateTest(ctx, rec)
	} else {
		rec, err = c.UpdateTest(ctx, rec)
	}
	if err != nil {
		return t, rep, fmt.Errorf("save test: %w", err)
	}

	existing, err := c.ListQuestions(ctx, rec.ID)
	if err != nil {
		return t, rep, fmt.Errorf("list questions: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, q := range existing {
		known[q.ID] = true
	}

	keep := map[string]bool{}
	for _, q := range t.Questions {
		if question.Persisted(q.ID) {
			keep[q.ID] = true
		}
	}
	for _, q := range existing {
		if keep[q.ID] {
			continue
		}
		if err := c.DeleteQuestion(ctx, rec.ID, q.ID); err != nil {
			rep.fail(QuestionFailure{Index: -1, ID: q.ID, Op: "delete", Err: err})
			continue
		}
		rep.Deleted++
	}

	// The list position is the order. Questions are written front to back, so
	// positions before i are already settled when question i is sent: an
	// update swaps with whoever holds i+1, a create shifts it down.
	for i, q := range t.Questions {
		q.Order = i + 1
		update := question.Persisted(q.ID) && known[q.ID]
		api, err := question.ToAPIAt(q, i)
		switch {
		case errors.Is(err, question.ErrUnsupportedQuestionType) && update:
			// No answer encoding: rewriting would drop the stored options.
			rep.Skipped++
			continue
		case errors.Is(err, question.ErrUnsupportedQuestionType):
			// New ones go through with empty options.
		case err != nil:
			rep.fail(QuestionFailure{Index: i, ID: q.ID, Op: "convert", Err: err})
			continue
		}
		if update {
			if _, err := c.UpdateQuestion(ctx, rec.ID, q.ID, api); err != nil {
				rep.fail(QuestionFailure{Index: i, ID: q.ID, Op: "update", Err: err})
				continue
			}
			rep.Updated++
			continue
		}
		if _, err := c.AddQuestion(ctx, rec.ID, api); err != nil {
			rep.fail(QuestionFailure{Index: i, ID: q.ID, Op: "create", Err: err})
			continue
		}
		rep.Created++
	}

	saved, err := c.GetTest(ctx, rec.ID)
	if err != nil {
		return t, rep, fmt.Errorf("reload test %d: %w", rec.ID, err)
	}
	return saved, rep, nil
}
