package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"quiz-dashboard/internal/quiz"
	"quiz-dashboard/internal/session"
)

func (c *HTTPClient) ListRetestRequests(ctx context.Context, teacherID int64) ([]quiz.RetestRequest, error) {
	path := "/api/retest-requests/teacher/" + strconv.FormatInt(teacherID, 10)

	var payload []retestItem
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}

	requests := make([]quiz.RetestRequest, 0, len(payload))
	for _, item := range payload {
		requestDate, err := parseTime(item.RequestDate)
		if err != nil {
			return nil, err
		}
		requests = append(requests, quiz.RetestRequest{
			RequestID:   item.RequestID,
			Status:      item.Status,
			QuizCode:    item.QuizCode,
			QuizName:    item.QuizName,
			StudentName: item.StudentName,
			RequestDate: requestDate,
		})
	}
	return requests, nil
}

// UpdateRetestRequest sets the request status. The teacher's password travels
// with every call so the server can re-verify it.
func (c *HTTPClient) UpdateRetestRequest(ctx context.Context, requestID int64, status, teacherPassword string) error {
	if !quiz.ValidRetestStatus(status) {
		return fmt.Errorf("invalid retest status %q", status)
	}

	path := "/api/retest-requests/" + strconv.FormatInt(requestID, 10)
	return c.doJSON(ctx, http.MethodPut, path, updateRetestRequest{
		Status:          status,
		TeacherPassword: teacherPassword,
	}, nil)
}

func (c *HTTPClient) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error {
	return c.doJSON(ctx, http.MethodPost, "/change-password", changePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
		Username:        username,
		UserType:        session.UserType,
	}, nil)
}

func (c *HTTPClient) UpdateTeacher(ctx context.Context, teacherID int64, email, name string) error {
	path := "/api/teachers/" + strconv.FormatInt(teacherID, 10)
	return c.doJSON(ctx, http.MethodPut, path, updateTeacherRequest{
		Email: email,
		Name:  name,
	}, nil)
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (session.User, error) {
	var payload loginResponse
	err := c.doJSON(ctx, http.MethodPost, "/login", loginRequest{
		Username: username,
		Password: password,
		UserType: session.UserType,
	}, &payload)
	if err != nil {
		return session.User{}, err
	}

	record := payload.loginUser
	if payload.User != nil {
		record = *payload.User
	}
	if record.ID == 0 {
		return session.User{}, &Error{Kind: KindServer, StatusCode: http.StatusOK, Message: "login response did not include a user id"}
	}
	if record.Username == "" {
		record.Username = username
	}

	return session.User{
		ID:       record.ID,
		Username: record.Username,
		Name:     record.Name,
		Email:    record.Email,
	}, nil
}
