package attempt

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/unicover/unicover-lms/internal/grading"
	"github.com/unicover/unicover-lms/internal/testbank"
)

// TestSource loads a test with its questions and answer keys.
type TestSource interface {
	GetTest(ctx context.Context, id int64) (testbank.Test, error)
}

type Service struct {
	Store  Store
	Tests  TestSource
	Grader grading.Grader
}

// Submission is a completed attempt. Result is set only by the call that
// completed it.
type Submission struct {
	Attempt
	Result *grading.Result `json:"result,omitempty"`
}

// Start opens an attempt on an active test, within the test's max_attempts.
func (s *Service) Start(ctx context.Context, testID int64, userID, ip, userAgent string) (Attempt, error) {
	t, err := s.Tests.GetTest(ctx, testID)
	if err != nil {
		return Attempt{}, err
	}
	if !t.IsActive {
		return Attempt{}, fmt.Errorf("test %d: %w", testID, ErrNotFound)
	}
	return s.Store.Start(ctx, Attempt{TestID: testID, UserID: userID, IPAddress: ip, UserAgent: userAgent}, t.MaxAttempts)
}

// Submit scores the attempt against the test's current questions and closes
// it. answers, when non-nil, replace the saved ones first. Submitting a
// closed attempt returns it unchanged.
func (s *Service) Submit(ctx context.Context, id int64, answers map[string]any) (Submission, error) {
	a, err := s.Store.Get(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if a.Completed() {
		return Submission{Attempt: a}, nil
	}
	if answers != nil {
		a.Answers = answers
	}
	t, err := s.Tests.GetTest(ctx, a.TestID)
	if err != nil {
		return Submission{}, err
	}
	g := s.Grader
	if g == nil {
		g = grading.NewDefaultGrader()
	}
	res := grading.ScoreTest(ctx, g, t.Questions, t.PassingScore, a.Answers)
	done, err := s.Store.Complete(ctx, id, a.Answers, res.Percent, res.Passed)
	if errors.Is(err, ErrCompleted) {
		// Lost a race with another submit.
		done, err = s.Store.Get(ctx, id)
		return Submission{Attempt: done}, err
	}
	if err != nil {
		return Submission{}, err
	}
	log.Printf("attempt %d: user %s test %d scored %.2f%% (passed=%v)", id, a.UserID, a.TestID, res.Percent, res.Passed)
	return Submission{Attempt: done, Result: &res}, nil
}

// RequestExtra files a request for one more attempt on a test the user has
// exhausted.
func (s *Service) RequestExtra(ctx context.Context, r ExtraRequest) (ExtraRequest, error) {
	if _, err := s.Tests.GetTest(ctx, r.TestID); err != nil {
		return ExtraRequest{}, err
	}
	return s.Store.CreateRequest(ctx, r)
}
