package contacts_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ailahq/safecheck/internal/contacts"
	"github.com/ailahq/safecheck/internal/store"
	"github.com/ailahq/safecheck/internal/store/file"
)

func newService(t *testing.T) (*contacts.Service, *store.Store) {
	t.Helper()

	st, err := file.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return contacts.NewService(st, log), st
}

func TestListForScopesToOwner(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	bob, err := svc.Add(ctx, "alice", "Bob", "bob@x.com", "+111")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add(ctx, "carol", "Dan", "dan@x.com", "+222"); err != nil {
		t.Fatalf("add: %v", err)
	}
	eve, err := svc.Add(ctx, "alice", "Eve", "eve@x.com", "+333")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := svc.ListFor(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 contacts for alice, got %d", len(got))
	}
	if got[0].ID != bob.ID || got[1].ID != eve.ID {
		t.Fatalf("insertion order lost: %+v", got)
	}

	// no contacts is an empty list, not an error
	got, err = svc.ListFor(ctx, "nobody")
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want no contacts, got %+v", got)
	}
}

func TestAddAllowsDuplicates(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first, err := svc.Add(ctx, "alice", "Bob", "bob@x.com", "+111")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := svc.Add(ctx, "alice", "Bob", "bob@x.com", "+111")
	if err != nil {
		t.Fatalf("add duplicate: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("duplicate contact reused the same id")
	}
}

func TestUpdatePreservesIDAndOwner(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	c, err := svc.Add(ctx, "alice", "Bob", "bob@x.com", "+111")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	updated, err := svc.Update(ctx, "alice", c.ID, "Bobby", "bobby@x.com", "+999")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != c.ID || updated.OwnerID != "alice" {
		t.Fatalf("update changed identity: %+v", updated)
	}
	if updated.Name != "Bobby" || updated.Email != "bobby@x.com" || updated.Phone != "+999" {
		t.Fatalf("update did not apply: %+v", updated)
	}
}

func TestUpdateAndRemoveNotFound(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	c, err := svc.Add(ctx, "alice", "Bob", "bob@x.com", "+111")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// unknown id
	if _, err := svc.Update(ctx, "alice", "nope", "X", "", ""); !errors.Is(err, contacts.ErrContactNotFound) {
		t.Fatalf("update unknown: want ErrContactNotFound, got %v", err)
	}
	if err := svc.Remove(ctx, "alice", "nope"); !errors.Is(err, contacts.ErrContactNotFound) {
		t.Fatalf("remove unknown: want ErrContactNotFound, got %v", err)
	}

	// somebody else's contact reads as not found, never as forbidden
	if _, err := svc.Update(ctx, "carol", c.ID, "X", "", ""); !errors.Is(err, contacts.ErrContactNotFound) {
		t.Fatalf("update foreign: want ErrContactNotFound, got %v", err)
	}
	if err := svc.Remove(ctx, "carol", c.ID); !errors.Is(err, contacts.ErrContactNotFound) {
		t.Fatalf("remove foreign: want ErrContactNotFound, got %v", err)
	}

	// the record is untouched after all of that
	got, _ := svc.ListFor(ctx, "alice")
	if len(got) != 1 || got[0].Name != "Bob" {
		t.Fatalf("contact mutated by failed calls: %+v", got)
	}
}

func TestRemove(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	c, err := svc.Add(ctx, "alice", "Bob", "bob@x.com", "+111")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	keep, err := svc.Add(ctx, "alice", "Eve", "eve@x.com", "+333")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.Remove(ctx, "alice", c.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	left, _ := st.Contacts.List(ctx)
	if len(left) != 1 || left[0].ID != keep.ID {
		t.Fatalf("wrong contact removed: %+v", left)
	}
}
