package question

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

type Type string

const (
	SingleChoice   Type = "single_choice"
	MultipleChoice Type = "multiple_choice"
	YesNo          Type = "yes_no"
	ShortAnswer    Type = "short_answer"

	// Stored and listed, but no answer encoding is defined for them.
	Matching Type = "matching"
	Ordering Type = "ordering"
)

// Fixed option texts of a yes/no question.
const (
	Yes = "Да"
	No  = "Нет"
)

// TempIDPrefix marks ids generated by the editor for questions the server has not seen yet.
const TempIDPrefix = "q-"

// Known reports whether t is one of the stored question types.
func (t Type) Known() bool {
	switch t {
	case SingleChoice, MultipleChoice, YesNo, ShortAnswer, Matching, Ordering:
		return true
	}
	return false
}

// Encoded reports whether correctness can be carried for t.
func (t Type) Encoded() bool {
	switch t {
	case SingleChoice, MultipleChoice, YesNo, ShortAnswer:
		return true
	}
	return false
}

func NewTempID() string { return TempIDPrefix + uuid.NewString() }

func IsTempID(id string) bool { return strings.HasPrefix(id, TempIDPrefix) }

// Persisted reports whether id refers to a question stored on the server.
func Persisted(id string) bool { return id != "" && !IsTempID(id) }

// UIQuestion is the editor shape: correctness lives in CorrectAnswer.
type UIQuestion struct {
	ID            string   `json:"id" yaml:"id,omitempty"`
	Type          Type     `json:"type" yaml:"type"`
	Text          string   `json:"text" yaml:"text"`
	Options       []Option `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectAnswer *Answer  `json:"correctAnswer,omitempty" yaml:"correctAnswer,omitempty"`
	Order         int      `json:"order" yaml:"order,omitempty"`
	Weight        int      `json:"weight" yaml:"weight,omitempty"`
}

// APIQuestion is the backend shape: correctness is a per-option flag.
type APIQuestion struct {
	ID      string   `json:"id,omitempty"`
	Type    Type     `json:"type"`
	Text    string   `json:"text"`
	Order   int      `json:"order"`
	Weight  int      `json:"weight"`
	Options []Option `json:"options"`
}

// CorrectOptions returns the options flagged correct, in order.
func (q APIQuestion) CorrectOptions() []Option {
	var out []Option
	for _, o := range q.Options {
		if o.IsCorrect {
			out = append(out, o)
		}
	}
	return out
}

// UnmarshalJSON accepts numeric ids, which is how a Django-style backend
// serializes primary keys.
func (q *APIQuestion) UnmarshalJSON(b []byte) error {
	type plain APIQuestion
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	id, err := rawID(raw.ID)
	if err != nil {
		return err
	}
	*q = APIQuestion(raw.plain)
	q.ID = id
	return nil
}

func (q *UIQuestion) UnmarshalJSON(b []byte) error {
	type plain UIQuestion
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	id, err := rawID(raw.ID)
	if err != nil {
		return err
	}
	*q = UIQuestion(raw.plain)
	q.ID = id
	return nil
}

// MarshalJSON writes options the way editors send them: a bare string for
// a choice that has neither id nor correctness, an object otherwise. The
// API shape always writes objects.
func (q UIQuestion) MarshalJSON() ([]byte, error) {
	type plain UIQuestion
	var opts []any
	if q.Options != nil {
		opts = make([]any, 0, len(q.Options))
		for _, o := range q.Options {
			if o.ID == "" && !o.IsCorrect {
				opts = append(opts, o.Text)
				continue
			}
			opts = append(opts, o)
		}
	}
	return json.Marshal(struct {
		plain
		Options []any `json:"options,omitempty"`
	}{plain(q), opts})
}
