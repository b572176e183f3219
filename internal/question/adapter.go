// Package question converts test questions between the editor shape, where a
// separate correctAnswer names the right choices, and the REST shape, where
// every option carries its own is_correct flag.
//
// Both directions are total: malformed input degrades to empty values. Types
// outside the encoded set still produce a value, together with
// ErrUnsupportedQuestionType so the caller can decide whether to keep it.
package question

import (
	"errors"
	"fmt"
)

var ErrUnsupportedQuestionType = errors.New("unsupported question type")

func unsupported(t Type) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedQuestionType, string(t))
}

// ToAPI converts an editor question to the REST shape. A missing order
// defaults to 1.
func ToAPI(q UIQuestion) (APIQuestion, error) { return ToAPIAt(q, 0) }

// ToAPIAt converts q sitting at position index (0-based) of its test. A
// missing order defaults to index+1, a missing weight to 1.
func ToAPIAt(q UIQuestion, index int) (APIQuestion, error) {
	out := APIQuestion{
		Type:   q.Type,
		Text:   q.Text,
		Order:  q.Order,
		Weight: q.Weight,
	}
	if out.Order <= 0 {
		out.Order = index + 1
	}
	if out.Weight <= 0 {
		out.Weight = 1
	}

	switch q.Type {
	case YesNo:
		v := q.CorrectAnswer.Value()
		out.Options = []Option{
			{Text: Yes, IsCorrect: v == Yes},
			{Text: No, IsCorrect: v == No},
		}
	case ShortAnswer:
		out.Options = []Option{{Text: q.CorrectAnswer.Value(), IsCorrect: true}}
	case SingleChoice:
		var vals []string
		if v := q.CorrectAnswer.Value(); v != "" {
			vals = []string{v}
		}
		out.Options = markCorrect(q.Options, vals)
	case MultipleChoice:
		out.Options = markCorrect(q.Options, q.CorrectAnswer.List())
	default:
		out.Options = []Option{}
		return out, unsupported(q.Type)
	}
	return out, nil
}

// FromAPI converts a stored question back to the editor shape. Correct
// options are referenced by id, or by text when they have no id.
func FromAPI(q APIQuestion) (UIQuestion, error) {
	out := UIQuestion{
		ID:     q.ID,
		Type:   q.Type,
		Text:   q.Text,
		Order:  q.Order,
		Weight: q.Weight,
	}
	if out.Weight <= 0 {
		out.Weight = 1
	}

	switch q.Type {
	case YesNo:
		v := ""
		if c := q.CorrectOptions(); len(c) > 0 {
			v = c[0].Text
		}
		out.Options = []Option{{Text: Yes}, {Text: No}}
		out.CorrectAnswer = Single(v)
	case ShortAnswer:
		v := ""
		if len(q.Options) > 0 {
			v = q.Options[0].Text
		}
		out.CorrectAnswer = Single(v)
	case SingleChoice, MultipleChoice:
		out.Options = append([]Option{}, q.Options...)
		refs := make([]string, 0, len(q.Options))
		for _, o := range q.CorrectOptions() {
			refs = append(refs, ref(o))
		}
		if q.Type == SingleChoice {
			v := ""
			if len(refs) > 0 {
				v = refs[0]
			}
			out.CorrectAnswer = Single(v)
		} else {
			out.CorrectAnswer = Multi(refs...)
		}
	default:
		out.Options = optionTexts(q.Options)
		return out, unsupported(q.Type)
	}
	return out, nil
}

// ToAPIAll converts a whole question list, numbering missing orders by
// position. Unsupported questions are kept (with empty options) and reported
// in the joined error.
func ToAPIAll(qs []UIQuestion) ([]APIQuestion, error) {
	out := make([]APIQuestion, 0, len(qs))
	var errs []error
	for i, q := range qs {
		a, err := ToAPIAt(q, i)
		if err != nil {
			errs = append(errs, fmt.Errorf("question %d: %w", i+1, err))
		}
		out = append(out, a)
	}
	return out, errors.Join(errs...)
}

func FromAPIAll(qs []APIQuestion) ([]UIQuestion, error) {
	out := make([]UIQuestion, 0, len(qs))
	var errs []error
	for i, q := range qs {
		u, err := FromAPI(q)
		if err != nil {
			errs = append(errs, fmt.Errorf("question %d: %w", i+1, err))
		}
		out = append(out, u)
	}
	return out, errors.Join(errs...)
}

// ref is the value an editor uses to point at o: its id once the server has
// assigned one, its text before that. A correct option without an id is
// therefore referenced by its text rather than dropped to an empty value, so
// FromAPI followed by ToAPI keeps the correct set.
func ref(o Option) string {
	if o.ID != "" {
		return o.ID
	}
	return o.Text
}

// markCorrect copies opts with is_correct derived from vals only.
func markCorrect(opts []Option, vals []string) []Option {
	out := make([]Option, len(opts))
	for i, o := range opts {
		out[i] = Option{ID: o.ID, Text: o.Text}
	}
	for _, v := range vals {
		if i := resolve(out, v); i >= 0 {
			out[i].IsCorrect = true
		}
	}
	return out
}

// resolve finds the option v refers to. Ids win over texts since texts are
// not unique; among equal texts the first option not yet marked is taken.
func resolve(opts []Option, v string) int {
	for i, o := range opts {
		if o.ID != "" && o.ID == v {
			return i
		}
	}
	first := -1
	for i, o := range opts {
		if o.Text != v {
			continue
		}
		if !o.IsCorrect {
			return i
		}
		if first < 0 {
			first = i
		}
	}
	return first
}
