package grading

import (
	"context"
	"math"

	"github.com/unicover/unicover-lms/internal/question"
)

// Result summarizes an attempt. Percent is rounded to two decimals.
type Result struct {
	Score       float64   `json:"score"`
	MaxScore    float64   `json:"max_score"`
	Percent     float64   `json:"percent"`
	Passed      bool      `json:"passed"`
	PerQuestion []Outcome `json:"per_question"`
}

// ScoreTest grades responses (keyed by question id) and compares the weighted
// percentage with passingScore. Unanswered questions score zero; a malformed
// response scores zero and is reported in that question's feedback.
func ScoreTest(ctx context.Context, g Grader, qs []question.APIQuestion, passingScore int, responses map[string]any) Result {
	res := Result{PerQuestion: make([]Outcome, 0, len(qs))}
	for _, q := range qs {
		resp, answered := responses[q.ID]
		var out Outcome
		if !answered {
			out = Outcome{QuestionID: q.ID, MaxPoints: weight(q), Feedback: []string{"no answer"}}
		} else {
			var err error
			out, err = g.Grade(ctx, q, resp)
			if err != nil {
				out.Points = 0
				out.Correct = false
				out.Feedback = append(out.Feedback, err.Error())
			}
		}
		res.Score += out.Points
		res.MaxScore += out.MaxPoints
		res.PerQuestion = append(res.PerQuestion, out)
	}
	if res.MaxScore > 0 {
		res.Percent = math.Round(res.Score/res.MaxScore*10000) / 100
	}
	res.Passed = res.MaxScore > 0 && res.Percent >= float64(passingScore)
	return res
}
