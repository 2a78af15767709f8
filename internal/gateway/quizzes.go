package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quiz-dashboard/internal/quiz"
)

// NewQuiz is the payload of one create-quiz call.
type NewQuiz struct {
	Name      string
	Code      string
	CreatedBy int64
	Questions []quiz.Question
	DueDate   time.Time
}

func (c *HTTPClient) ListCreatedQuizzes(ctx context.Context, teacherID int64) ([]quiz.Summary, error) {
	path := "/api/quizzes/created/" + strconv.FormatInt(teacherID, 10)

	var payload []summaryItem
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}

	quizzes := make([]quiz.Summary, 0, len(payload))
	for _, item := range payload {
		dueDate, err := parseTime(item.DueDate)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz.Summary{
			QuizID:  item.QuizID,
			Name:    item.Name,
			Code:    item.Code,
			DueDate: dueDate,
		})
	}
	return quizzes, nil
}

// CreateQuiz issues the single create request for a quiz and returns the code
// the server stored. When the server does not echo a code the submitted one
// is returned.
func (c *HTTPClient) CreateQuiz(ctx context.Context, input NewQuiz) (string, error) {
	questions := input.Questions
	if questions == nil {
		questions = []quiz.Question{}
	}

	request := createQuizRequest{
		Name:      input.Name,
		Code:      input.Code,
		CreatedBy: input.CreatedBy,
		Questions: questionsEnvelope{Questions: questions},
		DueDate:   input.DueDate.Format(quiz.DueDateLayout),
	}

	var payload createQuizResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/quizzes", request, &payload); err != nil {
		return "", err
	}
	if code := strings.TrimSpace(payload.Code); code != "" {
		return code, nil
	}
	return input.Code, nil
}

func (c *HTTPClient) ListQuizAttempts(ctx context.Context, code string) ([]quiz.Attempt, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("quiz code is required")
	}

	var payload []attemptItem
	if err := c.doJSON(ctx, http.MethodGet, "/api/quiz-attempts/"+url.PathEscape(code), nil, &payload); err != nil {
		return nil, err
	}

	attempts := make([]quiz.Attempt, 0, len(payload))
	for _, item := range payload {
		attemptDate, err := parseTime(item.AttemptDate)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, quiz.Attempt{
			AttemptID:       item.AttemptID,
			StudentID:       item.StudentID,
			StudentUsername: item.StudentUsername,
			QuizCode:        item.QuizCode,
			QuizName:        item.QuizName,
			Score:           item.Score,
			TotalQuestions:  item.TotalQuestions,
			CorrectAnswers:  item.CorrectAnswers,
			AttemptDate:     attemptDate,
			TimeTaken:       item.TimeTaken,
		})
	}
	return attempts, nil
}
