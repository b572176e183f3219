package question

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       UIQuestion
		wantErr error
	}{
		{"yes no ok", UIQuestion{Type: YesNo, Text: "?", CorrectAnswer: Single(Yes)}, nil},
		{"yes no bad answer", UIQuestion{Type: YesNo, Text: "?", CorrectAnswer: Single("maybe")}, ErrInvalidQuestion},
		{"empty text", UIQuestion{Type: ShortAnswer, Text: "  ", CorrectAnswer: Single("x")}, ErrInvalidQuestion},
		{"short answer missing", UIQuestion{Type: ShortAnswer, Text: "?"}, ErrInvalidQuestion},
		{"single ok", UIQuestion{Type: SingleChoice, Text: "?", Options: []Option{{Text: "A"}, {Text: "B"}}, CorrectAnswer: Single("B")}, nil},
		{"single dangling", UIQuestion{Type: SingleChoice, Text: "?", Options: []Option{{Text: "A"}, {Text: "B"}}, CorrectAnswer: Single("C")}, ErrInvalidQuestion},
		{"multi none", UIQuestion{Type: MultipleChoice, Text: "?", Options: []Option{{Text: "A"}, {Text: "B"}}, CorrectAnswer: Multi()}, ErrInvalidQuestion},
		{"multi one option", UIQuestion{Type: MultipleChoice, Text: "?", Options: []Option{{Text: "A"}}, CorrectAnswer: Multi("A")}, ErrInvalidQuestion},
		{"unsupported", UIQuestion{Type: "essay", Text: "?"}, ErrUnsupportedQuestionType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTypeSets(t *testing.T) {
	assert.True(t, Matching.Known())
	assert.False(t, Matching.Encoded())
	assert.True(t, YesNo.Encoded())
	assert.False(t, Type("essay").Known())
}
