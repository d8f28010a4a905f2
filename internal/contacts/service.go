// Package contacts is the per-user emergency contact book.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ailahq/safecheck/internal/domain/contact"
	"github.com/ailahq/safecheck/internal/store"
)

var ErrContactNotFound = errors.New("contact not found")

type Service struct {
	store *store.Store
	log   *slog.Logger
}

func NewService(st *store.Store, log *slog.Logger) *Service {
	return &Service{store: st, log: log}
}

// ListFor returns the owner's contacts in insertion order.
func (s *Service) ListFor(ctx context.Context, ownerID string) ([]contact.Contact, error) {
	all, err := s.store.Contacts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	out := make([]contact.Contact, 0, len(all))
	for _, c := range all {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Add stores a new contact for the owner. No dedup: the same person
// can be saved twice.
func (s *Service) Add(ctx context.Context, ownerID, name, email, phone string) (contact.Contact, error) {
	c := contact.Contact{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Name:    name,
		Email:   email,
		Phone:   phone,
	}

	if err := s.store.Contacts.Insert(ctx, c); err != nil {
		return contact.Contact{}, fmt.Errorf("insert contact: %w", err)
	}

	s.log.Info("contact added", "contact_id", c.ID, "owner_id", ownerID)
	return c, nil
}

// Update overwrites name, email and phone; id and owner are kept.
// Only the owner may touch the record.
func (s *Service) Update(ctx context.Context, ownerID, contactID, name, email, phone string) (contact.Contact, error) {
	existing, err := s.byID(ctx, ownerID, contactID)
	if err != nil {
		return contact.Contact{}, err
	}

	existing.Name = name
	existing.Email = email
	existing.Phone = phone

	replaced, err := s.store.Contacts.Replace(ctx, contactID, existing)
	if err != nil {
		return contact.Contact{}, fmt.Errorf("replace contact: %w", err)
	}
	if !replaced {
		return contact.Contact{}, ErrContactNotFound
	}
	return existing, nil
}

// Remove deletes the owner's contact. An unknown id surfaces
// ErrContactNotFound; the silent-success behaviour of the original
// client was judged a latent bug and not carried over.
func (s *Service) Remove(ctx context.Context, ownerID, contactID string) error {
	if _, err := s.byID(ctx, ownerID, contactID); err != nil {
		return err
	}

	if _, err := s.store.Contacts.RemoveWhere(ctx, func(c contact.Contact) bool {
		return c.ID == contactID
	}); err != nil {
		return fmt.Errorf("remove contact: %w", err)
	}

	s.log.Info("contact removed", "contact_id", contactID, "owner_id", ownerID)
	return nil
}

func (s *Service) byID(ctx context.Context, ownerID, contactID string) (contact.Contact, error) {
	all, err := s.store.Contacts.List(ctx)
	if err != nil {
		return contact.Contact{}, fmt.Errorf("list contacts: %w", err)
	}

	for _, c := range all {
		if c.ID == contactID && c.OwnerID == ownerID {
			return c, nil
		}
	}
	return contact.Contact{}, ErrContactNotFound
}
