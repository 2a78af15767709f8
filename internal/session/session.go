package session

import (
	"context"
	"errors"
)

// Key is the fixed storage key the user record is serialized under.
const Key = "user"

// UserType is the role sent to account endpoints for teachers.
const UserType = "teacher"

var ErrNoSession = errors.New("no active session")

// User is the authenticated teacher. It is passed explicitly to every
// component that needs an author or owner id.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

func (u User) Authenticated() bool {
	return u.ID != 0
}

// Store persists the single session record. Load returns ErrNoSession when
// nothing is stored.
type Store interface {
	Load(ctx context.Context) (User, error)
	Save(ctx context.Context, user User) error
	Clear(ctx context.Context) error
}
