// Package postgres is the production store backend. Each collection
// maps to one table with a position column so List keeps insertion
// order; RemoveWhere evaluates its predicate over the loaded rows and
// deletes the matched ids in a single transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ailahq/safecheck/internal/domain/contact"
	"github.com/ailahq/safecheck/internal/domain/message"
	"github.com/ailahq/safecheck/internal/domain/user"
	"github.com/ailahq/safecheck/internal/observability"
	"github.com/ailahq/safecheck/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id              TEXT PRIMARY KEY,
	email           TEXT NOT NULL,
	password_secret TEXT NOT NULL,
	name            TEXT NOT NULL,
	is_admin        BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL,
	pos             BIGSERIAL
);
CREATE TABLE IF NOT EXISTS contacts (
	id       TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	name     TEXT NOT NULL,
	email    TEXT NOT NULL,
	phone    TEXT NOT NULL,
	pos      BIGSERIAL
);
CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	pos        BIGSERIAL
);
CREATE TABLE IF NOT EXISTS session (
	k       INT PRIMARY KEY CHECK (k = 1),
	user_id TEXT NOT NULL
);
`

// NewPool dials the database and verifies connectivity.
func NewPool(dbURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 5

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Open applies the schema and returns a Store over the pool. prom may
// be nil (tests); then operations are simply not measured.
func Open(ctx context.Context, pool *pgxpool.Pool, prom *observability.Prom) (*store.Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &store.Store{
		Users:    &usersCollection{pool: pool, prom: prom},
		Contacts: &contactsCollection{pool: pool, prom: prom},
		Messages: &messagesCollection{pool: pool, prom: prom},
		Session:  &sessionStore{pool: pool, prom: prom},
	}, nil
}

// observe funnels an operation through the Prom DB instrumentation
// when it is wired.
func observe(prom *observability.Prom, op string, fn func() error) error {
	if prom == nil {
		return fn()
	}
	return prom.ObserveDB(op, fn)
}

type usersCollection struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func (c *usersCollection) List(ctx context.Context) ([]user.User, error) {
	var out []user.User

	err := observe(c.prom, "users.list", func() error {
		rows, err := c.pool.Query(ctx,
			`SELECT id, email, password_secret, name, is_admin, created_at
			 FROM users ORDER BY pos`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var u user.User
			if err := rows.Scan(&u.ID, &u.Email, &u.PasswordSecret, &u.Name, &u.IsAdmin, &u.CreatedAt); err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})
	return out, err
}

func (c *usersCollection) Insert(ctx context.Context, u user.User) error {
	return observe(c.prom, "users.insert", func() error {
		_, err := c.pool.Exec(ctx,
			`INSERT INTO users (id, email, password_secret, name, is_admin, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			u.ID, u.Email, u.PasswordSecret, u.Name, u.IsAdmin, u.CreatedAt)
		return err
	})
}

func (c *usersCollection) Replace(ctx context.Context, id string, u user.User) (bool, error) {
	var replaced bool

	err := observe(c.prom, "users.replace", func() error {
		tag, err := c.pool.Exec(ctx,
			`UPDATE users SET email = $2, password_secret = $3, name = $4, is_admin = $5, created_at = $6
			 WHERE id = $1`,
			id, u.Email, u.PasswordSecret, u.Name, u.IsAdmin, u.CreatedAt)
		if err != nil {
			return err
		}
		replaced = tag.RowsAffected() > 0
		return nil
	})
	return replaced, err
}

func (c *usersCollection) RemoveWhere(ctx context.Context, match func(user.User) bool) (int, error) {
	var removed int

	err := observe(c.prom, "users.remove_where", func() error {
		all, err := c.List(ctx)
		if err != nil {
			return err
		}
		ids := matchedIDs(all, match, func(u user.User) string { return u.ID })
		removed, err = deleteIDs(ctx, c.pool, "users", ids)
		return err
	})
	return removed, err
}

type contactsCollection struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func (c *contactsCollection) List(ctx context.Context) ([]contact.Contact, error) {
	var out []contact.Contact

	err := observe(c.prom, "contacts.list", func() error {
		rows, err := c.pool.Query(ctx,
			`SELECT id, owner_id, name, email, phone FROM contacts ORDER BY pos`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rec contact.Contact
			if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.Name, &rec.Email, &rec.Phone); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	return out, err
}

func (c *contactsCollection) Insert(ctx context.Context, rec contact.Contact) error {
	return observe(c.prom, "contacts.insert", func() error {
		_, err := c.pool.Exec(ctx,
			`INSERT INTO contacts (id, owner_id, name, email, phone)
			 VALUES ($1, $2, $3, $4, $5)`,
			rec.ID, rec.OwnerID, rec.Name, rec.Email, rec.Phone)
		return err
	})
}

func (c *contactsCollection) Replace(ctx context.Context, id string, rec contact.Contact) (bool, error) {
	var replaced bool

	err := observe(c.prom, "contacts.replace", func() error {
		tag, err := c.pool.Exec(ctx,
			`UPDATE contacts SET owner_id = $2, name = $3, email = $4, phone = $5
			 WHERE id = $1`,
			id, rec.OwnerID, rec.Name, rec.Email, rec.Phone)
		if err != nil {
			return err
		}
		replaced = tag.RowsAffected() > 0
		return nil
	})
	return replaced, err
}

func (c *contactsCollection) RemoveWhere(ctx context.Context, match func(contact.Contact) bool) (int, error) {
	var removed int

	err := observe(c.prom, "contacts.remove_where", func() error {
		all, err := c.List(ctx)
		if err != nil {
			return err
		}
		ids := matchedIDs(all, match, func(rec contact.Contact) string { return rec.ID })
		removed, err = deleteIDs(ctx, c.pool, "contacts", ids)
		return err
	})
	return removed, err
}

type messagesCollection struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func (c *messagesCollection) List(ctx context.Context) ([]message.Message, error) {
	var out []message.Message

	err := observe(c.prom, "messages.list", func() error {
		rows, err := c.pool.Query(ctx,
			`SELECT id, name, email, body, created_at FROM messages ORDER BY pos`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var m message.Message
			if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Body, &m.CreatedAt); err != nil {
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	return out, err
}

func (c *messagesCollection) Insert(ctx context.Context, m message.Message) error {
	return observe(c.prom, "messages.insert", func() error {
		_, err := c.pool.Exec(ctx,
			`INSERT INTO messages (id, name, email, body, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			m.ID, m.Name, m.Email, m.Body, m.CreatedAt)
		return err
	})
}

func (c *messagesCollection) Replace(ctx context.Context, id string, m message.Message) (bool, error) {
	var replaced bool

	err := observe(c.prom, "messages.replace", func() error {
		tag, err := c.pool.Exec(ctx,
			`UPDATE messages SET name = $2, email = $3, body = $4, created_at = $5
			 WHERE id = $1`,
			id, m.Name, m.Email, m.Body, m.CreatedAt)
		if err != nil {
			return err
		}
		replaced = tag.RowsAffected() > 0
		return nil
	})
	return replaced, err
}

func (c *messagesCollection) RemoveWhere(ctx context.Context, match func(message.Message) bool) (int, error) {
	var removed int

	err := observe(c.prom, "messages.remove_where", func() error {
		all, err := c.List(ctx)
		if err != nil {
			return err
		}
		ids := matchedIDs(all, match, func(m message.Message) string { return m.ID })
		removed, err = deleteIDs(ctx, c.pool, "messages", ids)
		return err
	})
	return removed, err
}

func matchedIDs[T any](all []T, match func(T) bool, id func(T) string) []string {
	var ids []string
	for _, rec := range all {
		if match(rec) {
			ids = append(ids, id(rec))
		}
	}
	return ids
}

func deleteIDs(ctx context.Context, pool *pgxpool.Pool, table string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := pool.Exec(ctx,
		`DELETE FROM `+table+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

type sessionStore struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func (s *sessionStore) Get(ctx context.Context) (string, error) {
	var userID string

	err := observe(s.prom, "session.get", func() error {
		return s.pool.QueryRow(ctx, `SELECT user_id FROM session WHERE k = 1`).Scan(&userID)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", store.ErrNoSession
		}
		return "", err
	}
	if userID == "" {
		return "", store.ErrNoSession
	}
	return userID, nil
}

func (s *sessionStore) Set(ctx context.Context, userID string) error {
	return observe(s.prom, "session.set", func() error {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO session (k, user_id) VALUES (1, $1)
			 ON CONFLICT (k) DO UPDATE SET user_id = EXCLUDED.user_id`,
			userID)
		return err
	})
}

func (s *sessionStore) Clear(ctx context.Context) error {
	return observe(s.prom, "session.clear", func() error {
		_, err := s.pool.Exec(ctx, `DELETE FROM session WHERE k = 1`)
		return err
	})
}
