package identity_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ailahq/safecheck/internal/clock"
	"github.com/ailahq/safecheck/internal/domain/contact"
	"github.com/ailahq/safecheck/internal/identity"
	"github.com/ailahq/safecheck/internal/store"
	"github.com/ailahq/safecheck/internal/store/file"
)

const (
	adminEmail    = "admin@aila.com"
	adminPassword = "Aila@123"
)

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time                          { return s.now }
func (s stubClock) NewTicker(d time.Duration) clock.Ticker { panic("identity does not tick") }

func newService(t *testing.T) (*identity.Service, *store.Store) {
	t.Helper()

	st, err := file.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	clk := stubClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return identity.NewService(st, clk, log, adminEmail, adminPassword, "Admin"), st
}

func TestBootstrapAdminIdempotent(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.BootstrapAdmin(ctx); err != nil {
			t.Fatalf("bootstrap %d: %v", i, err)
		}
	}

	users, _ := st.Users.List(ctx)
	if len(users) != 1 {
		t.Fatalf("want exactly one user after repeated bootstrap, got %d", len(users))
	}
	admin := users[0]
	if admin.ID != identity.AdminID || !admin.IsAdmin || admin.Email != adminEmail {
		t.Fatalf("unexpected admin record: %+v", admin)
	}
}

func TestRegisterDuplicateEmailCaseInsensitive(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@x.com", "pw1", "Alice"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(ctx, "Alice@X.com", "pw2", "Alice Again")
	if !errors.Is(err, identity.ErrDuplicateEmail) {
		t.Fatalf("want ErrDuplicateEmail, got %v", err)
	}

	// the reserved admin email is taken too, even before bootstrap ran
	if err := svc.BootstrapAdmin(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	_, err = svc.Register(ctx, "ADMIN@aila.com", "pw", "Impostor")
	if !errors.Is(err, identity.ErrDuplicateEmail) {
		t.Fatalf("admin email register: want ErrDuplicateEmail, got %v", err)
	}
}

func TestRegisterStoresLowercasedEmail(t *testing.T) {
	svc, _ := newService(t)

	u, err := svc.Register(context.Background(), "Carol@Example.COM", "pw", "Carol")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "carol@example.com" {
		t.Fatalf("want lowercased email, got %q", u.Email)
	}
	if u.IsAdmin {
		t.Fatal("registration must never mint admins")
	}
}

func TestLogin(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice@x.com", "pw1", "Alice")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "wrong password", email: "alice@x.com", password: "wrong", wantErr: identity.ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@x.com", password: "pw1", wantErr: identity.ErrInvalidCredentials},
		{name: "email case does not matter", email: "ALICE@x.com", password: "pw1"},
		{name: "exact match", email: "alice@x.com", password: "pw1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Login(ctx, tt.email, tt.password)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("login: %v", err)
			}
			if u.ID != registered.ID {
				t.Fatalf("logged in as %s, want %s", u.ID, registered.ID)
			}

			id, err := st.Session.Get(ctx)
			if err != nil || id != registered.ID {
				t.Fatalf("session not pointing at user: %q, %v", id, err)
			}
		})
	}
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	// nobody signed in
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout with empty session: %v", err)
	}

	if _, err := svc.Register(ctx, "alice@x.com", "pw1", "Alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(ctx, "alice@x.com", "pw1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.Current(ctx); !errors.Is(err, store.ErrNoSession) {
		t.Fatalf("after logout: want ErrNoSession, got %v", err)
	}
}

func TestDeleteUserCascadesContacts(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	if err := svc.BootstrapAdmin(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	alice, _ := svc.Register(ctx, "alice@x.com", "pw1", "Alice")
	carol, _ := svc.Register(ctx, "carol@x.com", "pw2", "Carol")

	for _, c := range []contact.Contact{
		{ID: "c1", OwnerID: alice.ID, Name: "Bob"},
		{ID: "c2", OwnerID: carol.ID, Name: "Dan"},
		{ID: "c3", OwnerID: alice.ID, Name: "Eve"},
	} {
		if err := st.Contacts.Insert(ctx, c); err != nil {
			t.Fatalf("insert contact: %v", err)
		}
	}

	if err := svc.DeleteUser(ctx, identity.AdminID, alice.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	users, _ := st.Users.List(ctx)
	for _, u := range users {
		if u.ID == alice.ID {
			t.Fatal("deleted user still present")
		}
	}

	left, _ := st.Contacts.List(ctx)
	if len(left) != 1 || left[0].OwnerID != carol.ID {
		t.Fatalf("cascade removed the wrong contacts: %+v", left)
	}
}

func TestDeleteUserRequiresAdmin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if err := svc.BootstrapAdmin(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	alice, _ := svc.Register(ctx, "alice@x.com", "pw1", "Alice")
	carol, _ := svc.Register(ctx, "carol@x.com", "pw2", "Carol")

	if err := svc.DeleteUser(ctx, alice.ID, carol.ID); !errors.Is(err, identity.ErrForbidden) {
		t.Fatalf("non-admin delete: want ErrForbidden, got %v", err)
	}
	if err := svc.DeleteUser(ctx, "ghost", carol.ID); !errors.Is(err, identity.ErrForbidden) {
		t.Fatalf("unknown actor delete: want ErrForbidden, got %v", err)
	}
	if err := svc.DeleteUser(ctx, identity.AdminID, "nope"); !errors.Is(err, identity.ErrUserNotFound) {
		t.Fatalf("delete unknown user: want ErrUserNotFound, got %v", err)
	}

	if _, err := svc.ListUsers(ctx, alice.ID); !errors.Is(err, identity.ErrForbidden) {
		t.Fatalf("non-admin list: want ErrForbidden, got %v", err)
	}
	users, err := svc.ListUsers(ctx, identity.AdminID)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("want 3 users, got %d", len(users))
	}
}

func TestCurrentWithDanglingSession(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	if err := svc.BootstrapAdmin(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	alice, _ := svc.Register(ctx, "alice@x.com", "pw1", "Alice")
	if _, err := svc.Login(ctx, "alice@x.com", "pw1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// deleting the signed-in user leaves the pointer dangling by contract
	if err := svc.DeleteUser(ctx, identity.AdminID, alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if id, err := st.Session.Get(ctx); err != nil || id != alice.ID {
		t.Fatalf("session pointer should be untouched, got %q, %v", id, err)
	}

	// but resolving it reads as signed out
	if _, err := svc.Current(ctx); !errors.Is(err, store.ErrNoSession) {
		t.Fatalf("dangling session: want ErrNoSession, got %v", err)
	}
}
