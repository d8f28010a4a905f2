// Package file is the default store backend: one JSON document per
// collection under a data directory, mirroring the single-process
// local storage the app grew out of.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ailahq/safecheck/internal/domain/contact"
	"github.com/ailahq/safecheck/internal/domain/message"
	"github.com/ailahq/safecheck/internal/domain/user"
	"github.com/ailahq/safecheck/internal/store"
)

const (
	usersFile    = "users.json"
	contactsFile = "contacts.json"
	messagesFile = "messages.json"
	sessionFile  = "session.json"
)

// Open loads (or creates) the data directory and returns a Store
// backed by it.
func Open(dir string) (*store.Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	users, err := openCollection(filepath.Join(dir, usersFile), func(u user.User) string { return u.ID })
	if err != nil {
		return nil, err
	}
	contacts, err := openCollection(filepath.Join(dir, contactsFile), func(c contact.Contact) string { return c.ID })
	if err != nil {
		return nil, err
	}
	messages, err := openCollection(filepath.Join(dir, messagesFile), func(m message.Message) string { return m.ID })
	if err != nil {
		return nil, err
	}
	session, err := openSession(filepath.Join(dir, sessionFile))
	if err != nil {
		return nil, err
	}

	return &store.Store{
		Users:    users,
		Contacts: contacts,
		Messages: messages,
		Session:  session,
	}, nil
}

type sessionDoc struct {
	UserID string `json:"userId"`
}

// sessionFileStore persists the current-user pointer the same way the
// collections persist records: a whole-document atomic write.
type sessionFileStore struct {
	mu     sync.Mutex
	path   string
	userID string
}

func openSession(path string) (*sessionFileStore, error) {
	s := &sessionFileStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc sessionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	s.userID = doc.UserID
	return s, nil
}

func (s *sessionFileStore) Get(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == "" {
		return "", store.ErrNoSession
	}
	return s.userID, nil
}

func (s *sessionFileStore) Set(ctx context.Context, userID string) error {
	return s.write(userID)
}

func (s *sessionFileStore) Clear(ctx context.Context) error {
	return s.write("")
}

func (s *sessionFileStore) write(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(sessionDoc{UserID: userID})
	if err != nil {
		return err
	}
	if err := atomicWrite(s.path, data); err != nil {
		return err
	}
	s.userID = userID
	return nil
}
