// Package attempt records learners taking tests: start, saved answers,
// submission with a score, and requests for attempts beyond a test's limit.
package attempt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrLimitReached = errors.New("attempt limit reached")
	ErrCompleted    = errors.New("attempt already completed")
)

type Attempt struct {
	ID          int64          `json:"id"`
	TestID      int64          `json:"test_id"`
	UserID      string         `json:"user_id"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	Score       *float64       `json:"score"` // percent
	Passed      *bool          `json:"passed"`
	Answers     map[string]any `json:"answers"` // question id -> response
	IPAddress   string         `json:"ip_address"`
	UserAgent   string         `json:"user_agent"`
}

func (a Attempt) Completed() bool { return a.CompletedAt != nil }

type ListOpts struct {
	UserID string // empty: every user
	TestID int64  // 0: every test
}

type RequestStatus string

const (
	Pending  RequestStatus = "pending"
	Approved RequestStatus = "approved"
	Rejected RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case Pending, Approved, Rejected:
		return true
	}
	return false
}

// ExtraRequest asks staff for one attempt beyond the test's max_attempts.
// Each approved request raises the learner's limit on that test by one.
type ExtraRequest struct {
	ID            int64         `json:"id"`
	UserID        string        `json:"user_id"`
	TestID        int64         `json:"test_id"`
	Reason        string        `json:"reason"`
	Status        RequestStatus `json:"status"`
	AdminResponse string        `json:"admin_response"`
	ProcessedBy   string        `json:"processed_by,omitempty"`
	ProcessedAt   *time.Time    `json:"processed_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (r *ExtraRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	var problems []string
	if r.TestID <= 0 {
		problems = append(problems, "test_id is required")
	}
	if r.Reason == "" {
		problems = append(problems, "reason is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
