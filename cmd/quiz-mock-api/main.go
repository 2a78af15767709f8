// Command quiz-mock-api serves an in-memory copy of the quiz platform API so
// the teacher console can be run locally without the real backend.
package main

import (
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"quiz-dashboard/internal/gateway/gatewaytest"
	"quiz-dashboard/internal/quiz"
)

func main() {
	defaultAddr := os.Getenv("ADDR")
	if defaultAddr == "" {
		defaultAddr = ":3000"
	}

	addr := flag.String("addr", defaultAddr, "HTTP listen address")
	flag.Parse()

	api := gatewaytest.New()
	seed(api)

	server := &http.Server{
		Addr:              *addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("quiz-mock-api listening on %s (login: teacher / password)", *addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}

func seed(api *gatewaytest.Server) {
	api.AddTeacher(gatewaytest.Teacher{ID: 1, Username: "teacher", Name: "Demo Teacher", Email: "teacher@example.com", Password: "password"})
	api.AddQuiz(1, gatewaytest.Quiz{Name: "Algebra Basics", Code: "ALG001", DueDate: "2025-01-01T10:00"})

	count := func(v int) *int { return &v }
	api.AddAttempts("ALG001",
		gatewaytest.Attempt{AttemptID: 1, StudentID: 11, StudentUsername: "alice", QuizCode: "ALG001", QuizName: "Algebra Basics", Score: 8, TotalQuestions: 10, CorrectAnswers: count(8), AttemptDate: "2024-12-30T09:15:00Z", TimeTaken: count(412)},
		gatewaytest.Attempt{AttemptID: 2, StudentID: 12, StudentUsername: "bob", QuizCode: "ALG001", QuizName: "Algebra Basics", Score: 6, TotalQuestions: 10, AttemptDate: "2024-12-30T10:02:00Z"},
		gatewaytest.Attempt{AttemptID: 3, StudentID: 13, StudentUsername: "carmen", QuizCode: "ALG001", QuizName: "Algebra Basics", Score: 10, TotalQuestions: 10, CorrectAnswers: count(10), AttemptDate: "2024-12-31T08:40:00Z", TimeTaken: count(298)},
	)
	api.AddRetestRequest(gatewaytest.RetestRequest{
		RequestID:   1,
		TeacherID:   1,
		Status:      quiz.StatusPending,
		QuizCode:    "ALG001",
		QuizName:    "Algebra Basics",
		StudentName: "bob",
		RequestDate: "2024-12-31T12:00:00Z",
	})
}
