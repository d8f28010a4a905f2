// Package messages handles notes submitted through the public contact
// form.
package messages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ailahq/safecheck/internal/clock"
	"github.com/ailahq/safecheck/internal/domain/message"
	"github.com/ailahq/safecheck/internal/store"
)

var ErrForbidden = errors.New("admin privileges required")

type Service struct {
	store *store.Store
	clock clock.Clock
	log   *slog.Logger
}

func NewService(st *store.Store, clk clock.Clock, log *slog.Logger) *Service {
	return &Service{store: st, clock: clk, log: log}
}

func (s *Service) Add(ctx context.Context, name, email, body string) (message.Message, error) {
	m := message.Message{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Body:      body,
		CreatedAt: s.clock.Now(),
	}

	if err := s.store.Messages.Insert(ctx, m); err != nil {
		return message.Message{}, fmt.Errorf("insert message: %w", err)
	}

	s.log.Info("contact message received", "message_id", m.ID)
	return m, nil
}

// List returns the inbox. The admin check lives here rather than in
// any caller so it cannot be bypassed.
func (s *Service) List(ctx context.Context, actorID string) ([]message.Message, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.store.Messages.List(ctx)
}

func (s *Service) requireAdmin(ctx context.Context, actorID string) error {
	if actorID == "" {
		return ErrForbidden
	}

	users, err := s.store.Users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, u := range users {
		if u.ID == actorID {
			if !u.IsAdmin {
				return ErrForbidden
			}
			return nil
		}
	}
	return ErrForbidden
}
