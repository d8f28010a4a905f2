// Package identity owns registration, login, the session pointer and
// the reserved admin account.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ailahq/safecheck/internal/clock"
	"github.com/ailahq/safecheck/internal/domain/contact"
	"github.com/ailahq/safecheck/internal/domain/user"
	"github.com/ailahq/safecheck/internal/store"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("admin privileges required")
)

// AdminID is the fixed id of the bootstrapped admin record.
const AdminID = "admin-001"

type Service struct {
	store *store.Store
	clock clock.Clock
	log   *slog.Logger

	adminEmail    string
	adminPassword string
	adminName     string
}

func NewService(st *store.Store, clk clock.Clock, log *slog.Logger, adminEmail, adminPassword, adminName string) *Service {
	return &Service{
		store:         st,
		clock:         clk,
		log:           log,
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
		adminName:     adminName,
	}
}

// BootstrapAdmin ensures the reserved admin user exists. Idempotent:
// calling it any number of times leaves exactly one admin record.
func (s *Service) BootstrapAdmin(ctx context.Context) error {
	users, err := s.store.Users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, u := range users {
		if u.EmailEquals(s.adminEmail) {
			return nil
		}
	}

	admin := user.New(AdminID, s.adminEmail, s.adminPassword, s.adminName, true, s.clock.Now())

	if err := s.store.Users.Insert(ctx, admin); err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}

	s.log.Info("admin user bootstrapped", "email", admin.Email)
	return nil
}

// Register creates a new non-admin user. The stored email is
// lowercased; uniqueness is checked case-insensitively.
func (s *Service) Register(ctx context.Context, email, password, name string) (user.User, error) {
	users, err := s.store.Users.List(ctx)
	if err != nil {
		return user.User{}, fmt.Errorf("list users: %w", err)
	}

	for _, u := range users {
		if u.EmailEquals(email) {
			return user.User{}, ErrDuplicateEmail
		}
	}

	u := user.New(uuid.NewString(), email, password, name, false, s.clock.Now())

	if err := s.store.Users.Insert(ctx, u); err != nil {
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	s.log.Info("user registered", "user_id", u.ID)
	return u, nil
}

// Login matches email case-insensitively and the password exactly, and
// points the session at the matched user.
func (s *Service) Login(ctx context.Context, email, password string) (user.User, error) {
	users, err := s.store.Users.List(ctx)
	if err != nil {
		return user.User{}, fmt.Errorf("list users: %w", err)
	}

	for _, u := range users {
		if u.EmailEquals(email) && u.PasswordSecret == password {
			if err := s.store.Session.Set(ctx, u.ID); err != nil {
				return user.User{}, fmt.Errorf("set session: %w", err)
			}
			s.log.Info("user logged in", "user_id", u.ID)
			return u, nil
		}
	}

	return user.User{}, ErrInvalidCredentials
}

// Logout clears the session pointer. Not an error when nobody is
// signed in.
func (s *Service) Logout(ctx context.Context) error {
	return s.store.Session.Clear(ctx)
}

// Current resolves the session pointer to a user. A dangling pointer
// (user deleted underneath the session) reads as no session.
func (s *Service) Current(ctx context.Context) (user.User, error) {
	id, err := s.store.Session.Get(ctx)
	if err != nil {
		return user.User{}, err
	}

	u, err := s.userByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return user.User{}, store.ErrNoSession
		}
		return user.User{}, err
	}
	return u, nil
}

// ListUsers returns every user, admin-gated on the acting principal.
func (s *Service) ListUsers(ctx context.Context, actorID string) ([]user.User, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.store.Users.List(ctx)
}

// DeleteUser removes the user and every contact they own. The admin
// check lives here rather than in any caller so it cannot be bypassed.
// The session pointer is left alone even when it referenced the
// deleted user; callers decide what to do about that.
func (s *Service) DeleteUser(ctx context.Context, actorID, userID string) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}

	if _, err := s.userByID(ctx, userID); err != nil {
		return err
	}

	if _, err := s.store.Users.RemoveWhere(ctx, func(u user.User) bool {
		return u.ID == userID
	}); err != nil {
		return fmt.Errorf("remove user: %w", err)
	}

	removed, err := s.store.Contacts.RemoveWhere(ctx, func(c contact.Contact) bool {
		return c.OwnerID == userID
	})
	if err != nil {
		return fmt.Errorf("cascade contacts: %w", err)
	}

	s.log.Info("user deleted", "user_id", userID, "contacts_removed", removed)
	return nil
}

func (s *Service) requireAdmin(ctx context.Context, actorID string) error {
	actor, err := s.userByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrForbidden
		}
		return err
	}
	if !actor.IsAdmin {
		return ErrForbidden
	}
	return nil
}

func (s *Service) userByID(ctx context.Context, id string) (user.User, error) {
	if strings.TrimSpace(id) == "" {
		return user.User{}, ErrUserNotFound
	}

	users, err := s.store.Users.List(ctx)
	if err != nil {
		return user.User{}, fmt.Errorf("list users: %w", err)
	}

	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, ErrUserNotFound
}
