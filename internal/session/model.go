// File: internal/session/model.go
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"localfelo_backend/internal/profile"

	"github.com/google/uuid"
)

// Source records where a session was resolved from.
type Source string

const (
	SourceBackend Source = "backend"
	SourceLocal   Source = "local"
)

// User is the lightweight user record persisted under oldcycle_user.
type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone,omitempty"`
	Email string    `json:"email,omitempty"`
	Token string    `json:"token,omitempty"`
}

// Session is a resolved identity. A nil *Session means guest.
type Session struct {
	User       User   `json:"user"`
	Token      string `json:"token"`
	IsAdmin    bool   `json:"isAdmin"`
	Source     Source `json:"source"`
	AuthUserID string `json:"-"`
}

// UserID returns the profile id, or nil for a nil session.
func (s *Session) UserID() *uuid.UUID {
	if s == nil {
		return nil
	}
	id := s.User.ID
	return &id
}

// Identity is a verified backend auth user.
type Identity struct {
	UID   string
	Name  string
	Email string
	Phone string
}

// AuthProvider is the backend auth layer.
type AuthProvider interface {
	// CurrentSession verifies credential. It returns nil, nil when there is no session.
	CurrentSession(ctx context.Context, credential string) (*Identity, error)
	SignOut(ctx context.Context, uid string) error
}

func userFromProfile(p *profile.Profile) User {
	u := User{ID: p.ID, Name: p.Name, Token: p.ClientToken}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	return u
}

func encodeUser(u User) (string, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("encode session user: %w", err)
	}
	return string(b), nil
}

func decodeUser(raw string) (User, error) {
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return User{}, fmt.Errorf("decode session user: %w", err)
	}
	if u.ID == uuid.Nil {
		return User{}, fmt.Errorf("decode session user: missing id")
	}
	return u, nil
}
