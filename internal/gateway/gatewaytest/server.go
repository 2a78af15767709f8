// Package gatewaytest runs an in-process stand-in for the quiz platform API.
// It keeps its data in memory, records every request and can hold or fail
// individual routes so callers can exercise cancellation and error paths.
package gatewaytest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

const (
	RouteCreatedQuizzes = "created-quizzes"
	RouteCreateQuiz     = "create-quiz"
	RouteAttempts       = "attempts"
	RouteRetestList     = "retest-list"
	RouteRetestUpdate   = "retest-update"
	RouteChangePassword = "change-password"
	RouteUpdateTeacher  = "update-teacher"
	RouteLogin          = "login"
)

type Quiz struct {
	QuizID  int64  `json:"quiz_id"`
	Name    string `json:"quiz_name"`
	Code    string `json:"quiz_code"`
	DueDate string `json:"due_date"`
}

type Attempt struct {
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

type RetestRequest struct {
	RequestID   int64  `json:"request_id"`
	TeacherID   int64  `json:"-"`
	Status      string `json:"status"`
	QuizCode    string `json:"quiz_code"`
	QuizName    string `json:"quiz_name"`
	StudentName string `json:"student_name"`
	RequestDate string `json:"request_date"`
}

type Teacher struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// CreatedQuiz is what a create-quiz call stored, including the raw questions
// payload exactly as received.
type CreatedQuiz struct {
	Name      string          `json:"quiz_name"`
	Code      string          `json:"quiz_code"`
	CreatedBy int64           `json:"created_by"`
	Questions json.RawMessage `json:"questions"`
	DueDate   string          `json:"due_date"`
}

type RecordedRequest struct {
	Route  string
	Method string
	Path   string
	Body   []byte
}

type failure struct {
	status  int
	payload any
}

type Server struct {
	*httptest.Server

	mu        sync.Mutex
	teachers  map[int64]*Teacher
	quizzes   map[int64][]Quiz
	created   []CreatedQuiz
	attempts  map[string][]Attempt
	retests   []*RetestRequest
	requests  []RecordedRequest
	failures  map[string]failure
	holds     map[string]chan struct{}
	started   map[string]chan struct{}
	nextQuiz  int64
	echoCodes bool
}

// NewServer starts the fake API on a local test listener.
func NewServer() *Server {
	s := New()
	s.Server = httptest.NewServer(s.Handler())
	return s
}

// New returns the fake API without starting a listener. Serve it through
// Handler.
func New() *Server {
	return &Server{
		teachers:  make(map[int64]*Teacher),
		quizzes:   make(map[int64][]Quiz),
		attempts:  make(map[string][]Attempt),
		failures:  make(map[string]failure),
		holds:     make(map[string]chan struct{}),
		started:   make(map[string]chan struct{}),
		nextQuiz:  1,
		echoCodes: true,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/quizzes/created/{teacher_id}", s.track(RouteCreatedQuizzes, s.handleCreatedQuizzes))
	mux.HandleFunc("POST /api/quizzes", s.track(RouteCreateQuiz, s.handleCreateQuiz))
	mux.HandleFunc("GET /api/quiz-attempts/{code}", s.track(RouteAttempts, s.handleAttempts))
	mux.HandleFunc("GET /api/retest-requests/teacher/{teacher_id}", s.track(RouteRetestList, s.handleRetestList))
	mux.HandleFunc("PUT /api/retest-requests/{request_id}", s.track(RouteRetestUpdate, s.handleRetestUpdate))
	mux.HandleFunc("POST /change-password", s.track(RouteChangePassword, s.handleChangePassword))
	mux.HandleFunc("PUT /api/teachers/{teacher_id}", s.track(RouteUpdateTeacher, s.handleUpdateTeacher))
	mux.HandleFunc("POST /login", s.track(RouteLogin, s.handleLogin))
	return mux
}

// track records the request, then applies any hold or injected failure for
// the route before handing over to the real handler.
func (s *Server) track(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Route:  route,
			Method: r.Method,
			Path:   r.URL.Path,
			Body:   body,
		})
		holdKey := route + " " + r.URL.Path
		hold := s.holds[holdKey]
		started := s.started[holdKey]
		fail, failing := s.failures[route]
		if failing {
			delete(s.failures, route)
		}
		s.mu.Unlock()

		if started != nil {
			select {
			case started <- struct{}{}:
			default:
			}
		}
		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}

		if failing {
			writeJSON(w, fail.status, fail.payload)
			return
		}
		next(w, r)
	}
}

// Hold blocks requests on route+path until release is called. The returned
// channel receives once per request that reaches the hold.
func (s *Server) Hold(route, path string) (started <-chan struct{}, release func()) {
	key := route + " " + path
	gate := make(chan struct{})
	seen := make(chan struct{}, 8)

	s.mu.Lock()
	s.holds[key] = gate
	s.started[key] = seen
	s.mu.Unlock()

	var once sync.Once
	return seen, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.holds, key)
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Fail makes the next request on route answer with status and payload.
func (s *Server) Fail(route string, status int, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, payload: payload}
}

// EchoCodes controls whether create-quiz responses include the stored code.
func (s *Server) EchoCodes(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.echoCodes = enabled
}

func (s *Server) AddTeacher(teacher Teacher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := teacher
	s.teachers[teacher.ID] = &copied
}

func (s *Server) Teacher(id int64) (Teacher, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	teacher, ok := s.teachers[id]
	if !ok {
		return Teacher{}, false
	}
	return *teacher, true
}

func (s *Server) AddQuiz(teacherID int64, item Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.QuizID == 0 {
		item.QuizID = s.nextQuiz
		s.nextQuiz++
	}
	s.quizzes[teacherID] = append(s.quizzes[teacherID], item)
}

func (s *Server) AddAttempts(code string, attempts ...Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[code] = append(s.attempts[code], attempts...)
}

func (s *Server) AddRetestRequest(request RetestRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := request
	s.retests = append(s.retests, &copied)
}

func (s *Server) RetestStatus(requestID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.retests {
		if item.RequestID == requestID {
			return item.Status
		}
	}
	return ""
}

func (s *Server) CreatedQuizzes() []CreatedQuiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CreatedQuiz(nil), s.created...)
}

// Requests returns every recorded request, optionally limited to one route.
func (s *Server) Requests(route string) []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, 0, len(s.requests))
	for _, item := range s.requests {
		if route == "" || item.Route == route {
			out = append(out, item)
		}
	}
	return out
}

func (s *Server) handleCreatedQuizzes(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := parseIDParam(w, r, "teacher_id")
	if !ok {
		return
	}

	s.mu.Lock()
	items := append([]Quiz{}, s.quizzes[teacherID]...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var request CreatedQuiz
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON body"})
		return
	}
	if strings.TrimSpace(request.Name) == "" || strings.TrimSpace(request.Code) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "quiz_name and quiz_code are required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.created {
		if existing.Code == request.Code {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "Quiz code already exists"})
			return
		}
	}
	s.created = append(s.created, request)
	s.quizzes[request.CreatedBy] = append(s.quizzes[request.CreatedBy], Quiz{
		QuizID:  s.nextQuiz,
		Name:    request.Name,
		Code:    request.Code,
		DueDate: request.DueDate,
	})
	s.nextQuiz++

	response := map[string]string{"message": "Quiz created successfully"}
	if s.echoCodes {
		response["quiz_code"] = request.Code
	}
	writeJSON(w, http.StatusCreated, response)
}

func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	s.mu.Lock()
	items := append([]Attempt{}, s.attempts[code]...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleRetestList(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := parseIDParam(w, r, "teacher_id")
	if !ok {
		return
	}

	s.mu.Lock()
	items := make([]RetestRequest, 0)
	for _, item := range s.retests {
		if item.TeacherID == teacherID {
			items = append(items, *item)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleRetestUpdate(w http.ResponseWriter, r *http.Request) {
	requestID, ok := parseIDParam(w, r, "request_id")
	if !ok {
		return
	}

	var request struct {
		Status          string `json:"status"`
		TeacherPassword string `json:"teacher_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var target *RetestRequest
	for _, item := range s.retests {
		if item.RequestID == requestID {
			target = item
			break
		}
	}
	if target == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Retest request not found"})
		return
	}
	teacher, ok := s.teachers[target.TeacherID]
	if !ok || teacher.Password != request.TeacherPassword {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid password"})
		return
	}

	target.Status = request.Status
	writeJSON(w, http.StatusOK, map[string]string{"message": "Retest request updated"})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var request struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		Username        string `json:"username"`
		UserType        string `json:"userType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, teacher := range s.teachers {
		if teacher.Username != request.Username {
			continue
		}
		if teacher.Password != request.CurrentPassword {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Current password is incorrect"})
			return
		}
		teacher.Password = request.NewPassword
		writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
}

func (s *Server) handleUpdateTeacher(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := parseIDParam(w, r, "teacher_id")
	if !ok {
		return
	}

	var request struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	teacher, ok := s.teachers[teacherID]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Teacher not found"})
		return
	}
	teacher.Email = request.Email
	teacher.Name = request.Name
	writeJSON(w, http.StatusOK, teacher)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, teacher := range s.teachers {
		if teacher.Username == request.Username && teacher.Password == request.Password {
			writeJSON(w, http.StatusOK, map[string]any{"user": teacher})
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid username or password"})
}

func parseIDParam(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	value, err := strconv.ParseInt(r.PathValue(key), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": key + " must be an integer"})
		return 0, false
	}
	return value, true
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
