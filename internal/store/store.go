// Package store defines the persistence contract for SafeCheck's four
// record collections. Implementations live in the file and postgres
// subpackages; services only see these interfaces.
package store

import (
	"context"
	"errors"

	"github.com/ailahq/safecheck/internal/domain/contact"
	"github.com/ailahq/safecheck/internal/domain/message"
	"github.com/ailahq/safecheck/internal/domain/user"
)

// ErrNoSession is returned by Session.Get when no user is signed in.
var ErrNoSession = errors.New("no active session")

// Collection is the whole contract a persisted collection exposes.
// List returns records in insertion order. Insert appends; callers
// guarantee id uniqueness. Replace reports false (no error) when the
// id is absent. RemoveWhere drops every matching record and returns
// how many went; zero matches is not an error.
type Collection[T any] interface {
	List(ctx context.Context) ([]T, error)
	Insert(ctx context.Context, rec T) error
	Replace(ctx context.Context, id string, rec T) (bool, error)
	RemoveWhere(ctx context.Context, match func(T) bool) (int, error)
}

// Session is the single current-user pointer: set on login, cleared on
// logout. Get returns ErrNoSession when empty.
type Session interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, userID string) error
	Clear(ctx context.Context) error
}

// Store bundles the collections a running service needs.
type Store struct {
	Users    Collection[user.User]
	Contacts Collection[contact.Contact]
	Messages Collection[message.Message]
	Session  Session
}
