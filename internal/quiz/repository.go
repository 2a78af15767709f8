package quiz

import (
	"errors"
	"time"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDeclined = "declined"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// ValidationError blocks a local state transition. The message is shown to
// the user verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Summary is one quiz created by a teacher.
type Summary struct {
	QuizID  int64
	Name    string
	Code    string
	DueDate time.Time
}

// Attempt is one student's completed submission, as reported by the server.
type Attempt struct {
	AttemptID       int64
	StudentID       int64
	StudentUsername string
	QuizCode        string
	QuizName        string
	Score           int
	TotalQuestions  int
	CorrectAnswers  *int
	AttemptDate     time.Time
	TimeTaken       *int
}

type RetestRequest struct {
	RequestID   int64
	Status      string
	QuizCode    string
	QuizName    string
	StudentName string
	RequestDate time.Time
}

func (r RetestRequest) IsPending() bool {
	return r.Status == StatusPending
}

func ValidRetestStatus(status string) bool {
	return status == StatusApproved || status == StatusDeclined
}
