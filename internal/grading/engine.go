// Package grading scores self-check attempts against a test's stored
// questions. Nothing is persisted; the caller gets a Result back.
package grading

import (
	"context"
	"errors"
	"strings"

	"github.com/unicover/unicover-lms/internal/question"
)

var ErrBadResponse = errors.New("bad response")

// Outcome is the result of grading one question.
type Outcome struct {
	QuestionID  string   `json:"question_id"`
	Points      float64  `json:"points"`
	MaxPoints   float64  `json:"max_points"`
	Correct     bool     `json:"correct"`
	NeedsManual bool     `json:"needs_manual,omitempty"`
	Feedback    []string `json:"feedback,omitempty"`
}

// Strategy grades a single question type. response is whatever the JSON
// decoder produced: a string, a number or a []any.
type Strategy interface {
	Grade(ctx context.Context, q question.APIQuestion, response any) (Outcome, error)
}

type Grader interface {
	Grade(ctx context.Context, q question.APIQuestion, response any) (Outcome, error)
}

type defaultGrader struct {
	strategies map[question.Type]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q question.APIQuestion, response any) (Outcome, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Outcome{QuestionID: q.ID, MaxPoints: weight(q), NeedsManual: true,
			Feedback: []string{"no automatic grading for " + string(q.Type)}}, nil
	}
	out, err := s.Grade(ctx, q, response)
	out.QuestionID = q.ID
	out.MaxPoints = weight(q)
	out.Correct = out.Points >= out.MaxPoints && out.MaxPoints > 0
	return out, err
}

type Option func(*config)

type config struct {
	MaxEditDistance   int  // short answer typo tolerance
	AllowPartialMulti bool // partial credit for multiple choice without wrong picks
}

func WithMaxEditDistance(n int) Option { return func(c *config) { c.MaxEditDistance = n } }
func WithPartialMulti(b bool) Option   { return func(c *config) { c.AllowPartialMulti = b } }

// NewDefaultGrader installs the built-in strategies. Matching and ordering
// questions fall through to manual review.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{MaxEditDistance: 1}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[question.Type]Strategy{
			question.SingleChoice:   choiceStrategy{},
			question.YesNo:          choiceStrategy{},
			question.MultipleChoice: multiStrategy{allowPartial: cfg.AllowPartialMulti},
			question.ShortAnswer:    shortAnswerStrategy{maxEdit: cfg.MaxEditDistance},
		},
	}
}

func weight(q question.APIQuestion) float64 {
	if q.Weight < 1 {
		return 1
	}
	return float64(q.Weight)
}

/* ---------------------------------- strategies ---------------------------------- */

// choiceStrategy accepts the picked option's id or its text.
type choiceStrategy struct{}

func (choiceStrategy) Grade(_ context.Context, q question.APIQuestion, response any) (Outcome, error) {
	var out Outcome
	resp, ok := asString(response)
	if !ok {
		return out, errors.Join(ErrBadResponse, errors.New("response must be a string"))
	}
	if picked, ok := pick(q.Options, resp); ok && picked.IsCorrect {
		out.Points = weight(q)
	}
	return out, nil
}

// multiStrategy needs the exact set of correct options for full credit.
type multiStrategy struct{ allowPartial bool }

func (s multiStrategy) Grade(_ context.Context, q question.APIQuestion, response any) (Outcome, error) {
	var out Outcome
	resp, ok := asStrings(response)
	if !ok {
		return out, errors.Join(ErrBadResponse, errors.New("response must be a list of strings"))
	}
	correct := map[int]bool{}
	for i, o := range q.Options {
		if o.IsCorrect {
			correct[i] = true
		}
	}
	chosen := map[int]bool{}
	wrong := false
	for _, r := range resp {
		i, ok := pickIndex(q.Options, r)
		if !ok || !correct[i] {
			wrong = true
			continue
		}
		chosen[i] = true
	}
	switch {
	case !wrong && len(chosen) == len(correct) && len(correct) > 0:
		out.Points = weight(q)
	case s.allowPartial && !wrong && len(correct) > 0:
		out.Points = weight(q) * float64(len(chosen)) / float64(len(correct))
	}
	return out, nil
}

// shortAnswerStrategy compares normalized text; numeric keys compare by value.
type shortAnswerStrategy struct{ maxEdit int }

func (s shortAnswerStrategy) Grade(_ context.Context, q question.APIQuestion, response any) (Outcome, error) {
	var out Outcome
	resp, ok := asString(response)
	if !ok {
		return out, errors.Join(ErrBadResponse, errors.New("response must be a string"))
	}
	got := normalize(resp)
	if got == "" {
		return out, nil
	}
	for _, o := range q.CorrectOptions() {
		want := normalize(o.Text)
		switch {
		case want == got, numericMatch(o.Text, resp):
			out.Points = weight(q)
			return out, nil
		case s.maxEdit > 0 && levenshtein(want, got) <= s.maxEdit:
			out.Points = weight(q)
			out.Feedback = append(out.Feedback, "accepted with a typo")
			return out, nil
		}
	}
	return out, nil
}

/* ---------------------------------- helpers ---------------------------------- */

func pick(opts []question.Option, resp string) (question.Option, bool) {
	i, ok := pickIndex(opts, resp)
	if !ok {
		return question.Option{}, false
	}
	return opts[i], true
}

// pickIndex resolves a response to an option: id first, then normalized text.
func pickIndex(opts []question.Option, resp string) (int, bool) {
	resp = strings.TrimSpace(resp)
	for i, o := range opts {
		if o.ID != "" && o.ID == resp {
			return i, true
		}
	}
	n := normalize(resp)
	for i, o := range opts {
		if normalize(o.Text) == n {
			return i, true
		}
	}
	return 0, false
}

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case nil:
		return "", true
	case float64:
		return formatNumber(t), true
	case bool:
		if t {
			return question.Yes, true
		}
		return question.No, true
	}
	return "", false
}

func asStrings(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := asString(e)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case nil:
		return nil, true
	case string:
		return []string{t}, true
	}
	return nil, false
}
