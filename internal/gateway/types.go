package gateway

import "quiz-dashboard/internal/quiz"

type summaryItem struct {
	QuizID  int64  `json:"quiz_id"`
	Name    string `json:"quiz_name"`
	Code    string `json:"quiz_code"`
	DueDate string `json:"due_date"`
}

type attemptItem struct {
	AttemptID       int64  `json:"attempt_id"`
	StudentID       int64  `json:"student_id"`
	StudentUsername string `json:"student_username"`
	QuizCode        string `json:"quiz_code"`
	QuizName        string `json:"quiz_name"`
	Score           int    `json:"score"`
	TotalQuestions  int    `json:"total_questions"`
	CorrectAnswers  *int   `json:"correct_answers"`
	AttemptDate     string `json:"attempt_date"`
	TimeTaken       *int   `json:"time_taken"`
}

type retestItem struct {
	RequestID   int64  `json:"request_id"`
	Status      string `json:"status"`
	QuizCode    string `json:"quiz_code"`
	QuizName    string `json:"quiz_name"`
	StudentName string `json:"student_name"`
	RequestDate string `json:"request_date"`
}

// The API expects the question list wrapped in an object.
type questionsEnvelope struct {
	Questions []quiz.Question `json:"questions"`
}

type createQuizRequest struct {
	Name      string            `json:"quiz_name"`
	Code      string            `json:"quiz_code"`
	CreatedBy int64             `json:"created_by"`
	Questions questionsEnvelope `json:"questions"`
	DueDate   string            `json:"due_date"`
}

type createQuizResponse struct {
	Code string `json:"quiz_code"`
}

type updateRetestRequest struct {
	Status          string `json:"status"`
	TeacherPassword string `json:"teacher_password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	Username        string `json:"username"`
	UserType        string `json:"userType"`
}

type updateTeacherRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

type loginUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// Login responses either carry the record under "user" or at the top level.
type loginResponse struct {
	User *loginUser `json:"user"`
	loginUser
}
