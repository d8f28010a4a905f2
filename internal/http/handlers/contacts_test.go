package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ailahq/safecheck/internal/contacts"
	"github.com/ailahq/safecheck/internal/domain/contact"
	"github.com/ailahq/safecheck/internal/domain/user"
	"github.com/ailahq/safecheck/internal/http/handlers"
	"github.com/ailahq/safecheck/internal/http/middlewares"
)

type fakeBook struct {
	items     []contact.Contact
	addErr    error
	updateErr error
	removeErr error

	gotOwnerID   string
	gotContactID string
}

func (f *fakeBook) ListFor(ctx context.Context, ownerID string) ([]contact.Contact, error) {
	f.gotOwnerID = ownerID
	return f.items, nil
}

func (f *fakeBook) Add(ctx context.Context, ownerID, name, email, phone string) (contact.Contact, error) {
	f.gotOwnerID = ownerID
	if f.addErr != nil {
		return contact.Contact{}, f.addErr
	}
	return contact.Contact{ID: "c-new", OwnerID: ownerID, Name: name, Email: email, Phone: phone}, nil
}

func (f *fakeBook) Update(ctx context.Context, ownerID, contactID, name, email, phone string) (contact.Contact, error) {
	f.gotOwnerID = ownerID
	f.gotContactID = contactID
	if f.updateErr != nil {
		return contact.Contact{}, f.updateErr
	}
	return contact.Contact{ID: contactID, OwnerID: ownerID, Name: name, Email: email, Phone: phone}, nil
}

func (f *fakeBook) Remove(ctx context.Context, ownerID, contactID string) error {
	f.gotOwnerID = ownerID
	f.gotContactID = contactID
	return f.removeErr
}

func contactsRouter(book *fakeBook) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	principal := middlewares.NewPrincipal(fixedPrincipal{
		u: user.User{ID: "alice", Email: "alice@x.com"},
	})
	h := handlers.NewContactsHandler(book)

	g := r.Group("/", principal.RequireUser())
	g.GET("/contacts", h.List)
	g.POST("/contacts", h.Create)
	g.PUT("/contacts/:id", h.Update)
	g.DELETE("/contacts/:id", h.Delete)

	return r
}

func TestContactsList(t *testing.T) {
	book := &fakeBook{items: []contact.Contact{
		{ID: "c1", OwnerID: "alice", Name: "Bob"},
		{ID: "c2", OwnerID: "alice", Name: "Eve"},
	}}
	r := contactsRouter(book)

	w := doJSON(t, r, http.MethodGet, "/contacts", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if book.gotOwnerID != "alice" {
		t.Fatalf("principal not forwarded: %q", book.gotOwnerID)
	}

	var resp struct {
		Items []contact.Contact `json:"items"`
		Count int               `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 || len(resp.Items) != 2 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestContactsCreate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		book := &fakeBook{}
		r := contactsRouter(book)

		w := doJSON(t, r, http.MethodPost, "/contacts",
			`{"name":"Bob","email":"bob@x.com","phone":"+111"}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("status: %d, body %s", w.Code, w.Body.String())
		}

		var c contact.Contact
		if err := json.Unmarshal(w.Body.Bytes(), &c); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if c.OwnerID != "alice" || c.Name != "Bob" {
			t.Fatalf("unexpected contact: %+v", c)
		}
	})

	t.Run("validation", func(t *testing.T) {
		r := contactsRouter(&fakeBook{})

		w := doJSON(t, r, http.MethodPost, "/contacts",
			`{"name":"Bob","email":"not-an-email","phone":"+111"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status: %d", w.Code)
		}

		var env errorEnvelope
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Error.Code != "invalid_request" {
			t.Fatalf("code: %q", env.Error.Code)
		}
	})
}

func TestContactsUpdate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		book := &fakeBook{}
		r := contactsRouter(book)

		w := doJSON(t, r, http.MethodPut, "/contacts/c1",
			`{"name":"Bobby","email":"bobby@x.com","phone":"+999"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status: %d, body %s", w.Code, w.Body.String())
		}
		if book.gotContactID != "c1" {
			t.Fatalf("contact id not forwarded: %q", book.gotContactID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		r := contactsRouter(&fakeBook{updateErr: contacts.ErrContactNotFound})

		w := doJSON(t, r, http.MethodPut, "/contacts/nope",
			`{"name":"Bobby","email":"bobby@x.com","phone":"+999"}`)
		if w.Code != http.StatusNotFound {
			t.Fatalf("status: %d", w.Code)
		}
	})
}

func TestContactsDelete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		book := &fakeBook{}
		r := contactsRouter(book)

		w := doJSON(t, r, http.MethodDelete, "/contacts/c1", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status: %d", w.Code)
		}
		if book.gotContactID != "c1" {
			t.Fatalf("contact id not forwarded: %q", book.gotContactID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		r := contactsRouter(&fakeBook{removeErr: contacts.ErrContactNotFound})

		w := doJSON(t, r, http.MethodDelete, "/contacts/nope", "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("status: %d", w.Code)
		}
	})
}
