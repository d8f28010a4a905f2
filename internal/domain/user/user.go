package user

import (
	"strings"
	"time"
)

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordSecret string    `json:"-"` // never expose the secret in JSON
	Name           string    `json:"name"`
	IsAdmin        bool      `json:"isAdmin"`
	CreatedAt      time.Time `json:"createdAt"`
}

func New(id, email, password, name string, isAdmin bool, createdAt time.Time) User {
	return User{
		ID:             id,
		Email:          strings.ToLower(strings.TrimSpace(email)),
		PasswordSecret: password,
		Name:           name,
		IsAdmin:        isAdmin,
		CreatedAt:      createdAt,
	}
}

// EmailEquals reports whether the user's email matches the given one,
// case-insensitively.
func (u User) EmailEquals(email string) bool {
	return strings.EqualFold(u.Email, strings.TrimSpace(email))
}
