package question

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidQuestion = errors.New("invalid question")

// Validate applies the checks the adapter itself skips. It is meant for
// callers that prefer to reject a question rather than save a lossy one.
func (q UIQuestion) Validate() error {
	var problems []string
	if strings.TrimSpace(q.Text) == "" {
		problems = append(problems, "text is empty")
	}
	switch q.Type {
	case YesNo:
		if v := q.CorrectAnswer.Value(); v != Yes && v != No {
			problems = append(problems, fmt.Sprintf("yes/no answer must be %q or %q", Yes, No))
		}
	case ShortAnswer:
		if strings.TrimSpace(q.CorrectAnswer.Value()) == "" {
			problems = append(problems, "short answer is empty")
		}
	case SingleChoice, MultipleChoice:
		if len(q.Options) < 2 {
			problems = append(problems, "needs at least two options")
		}
		vals := q.CorrectAnswer.List()
		if q.Type == SingleChoice && len(vals) > 1 {
			vals = vals[:1]
		}
		if len(vals) == 0 {
			problems = append(problems, "no correct answer")
		}
		marked := markCorrect(q.Options, nil)
		for _, v := range vals {
			i := resolve(marked, v)
			if i < 0 {
				problems = append(problems, fmt.Sprintf("answer %q matches no option", v))
				continue
			}
			marked[i].IsCorrect = true
		}
	default:
		return unsupported(q.Type)
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidQuestion, strings.Join(problems, "; "))
}
