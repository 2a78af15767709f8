package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"quiz-dashboard/internal/gateway"
	"quiz-dashboard/internal/lifecycle"
	"quiz-dashboard/internal/quiz"
	"quiz-dashboard/internal/session"
)

const (
	msgPasswordChanged  = "Password changed successfully"
	msgPasswordFailed   = "An error occurred while changing the password"
	msgProfileUpdated   = "Profile updated successfully"
	msgProfileFailed    = "An error occurred while updating the profile"
	msgPasswordRequired = "Please enter your current and new password."
)

type AccountClient interface {
	ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error
	UpdateTeacher(ctx context.Context, teacherID int64, email, name string) error
}

type profileInput struct {
	Name  string `validate:"required,max=100"`
	Email string `validate:"required,email"`
}

// Settings changes the teacher's password and profile and ends the session.
type Settings struct {
	client   AccountClient
	store    session.Store
	validate *validator.Validate
	scope    *lifecycle.Scope
	tracker  lifecycle.Tracker

	mu   sync.Mutex
	user session.User
}

func NewSettings(parent context.Context, client AccountClient, store session.Store, user session.User) *Settings {
	return &Settings{
		client:   client,
		store:    store,
		validate: validator.New(),
		scope:    lifecycle.NewScope(parent),
		user:     user,
	}
}

func (s *Settings) Close() {
	s.scope.Close()
	s.tracker.Cancel()
}

// User is the session record as last written by this view.
func (s *Settings) User() session.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Settings) State() lifecycle.State {
	return s.tracker.State()
}

func (s *Settings) Message() string {
	return s.tracker.Message()
}

func (s *Settings) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		s.tracker.Reject(msgPasswordRequired)
		return &quiz.ValidationError{Message: msgPasswordRequired}
	}
	user := s.User()
	if !user.Authenticated() {
		s.tracker.Reject(msgPasswordFailed)
		return quiz.ErrNotAuthenticated
	}

	ctx, cancel := s.scope.Bind(ctx)
	defer cancel()
	s.tracker.Begin()

	if err := s.client.ChangePassword(ctx, user.Username, currentPassword, newPassword); err != nil {
		return s.fail(err, "change password", msgPasswordFailed)
	}
	s.tracker.Succeed(msgPasswordChanged)
	return nil
}

// UpdateProfile sends the new name and email. On success the session record
// is rewritten with the name doubling as the username.
func (s *Settings) UpdateProfile(ctx context.Context, name, email string) (session.User, error) {
	input := profileInput{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	if err := s.validate.Struct(input); err != nil {
		message := profileValidationMessage(err)
		s.tracker.Reject(message)
		return session.User{}, &quiz.ValidationError{Message: message}
	}
	user := s.User()
	if !user.Authenticated() {
		s.tracker.Reject(msgProfileFailed)
		return session.User{}, quiz.ErrNotAuthenticated
	}

	ctx, cancel := s.scope.Bind(ctx)
	defer cancel()
	s.tracker.Begin()

	if err := s.client.UpdateTeacher(ctx, user.ID, input.Email, input.Name); err != nil {
		return session.User{}, s.fail(err, "update profile", msgProfileFailed)
	}

	user.Name = input.Name
	user.Email = input.Email
	user.Username = input.Name
	if err := s.store.Save(ctx, user); err != nil {
		s.tracker.Fail(msgProfileFailed)
		return session.User{}, fmt.Errorf("save session: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	s.tracker.Succeed(msgProfileUpdated)
	return user, nil
}

// Logout removes the session record.
func (s *Settings) Logout(ctx context.Context) error {
	s.scope.Close()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.mu.Lock()
	s.user = session.User{}
	s.mu.Unlock()
	return nil
}

func (s *Settings) fail(err error, action, fallback string) error {
	if gateway.IsCanceled(err) {
		s.tracker.Cancel()
		return err
	}
	log.Printf("dashboard: %s failed: %v", action, err)
	s.tracker.Fail(gateway.Message(err, fallback))
	return err
}

func profileValidationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return "Invalid profile."
	}

	switch fieldErr := fieldErrors[0]; {
	case fieldErr.Field() == "Email" && fieldErr.Tag() == "email":
		return "Please enter a valid email address."
	case fieldErr.Tag() == "required":
		return fmt.Sprintf("Please enter your %s.", strings.ToLower(fieldErr.Field()))
	default:
		return fmt.Sprintf("%s is invalid.", fieldErr.Field())
	}
}
