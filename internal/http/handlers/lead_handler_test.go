package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
	"github.com/propadvisor/go-assistant-backend/internal/services"
)

func TestGetUser_Flows(t *testing.T) {
	id := uuid.NewString()

	r := newTestRouter(New(&fakeTurnService{}, &fakeConvService{},
		&fakeUserService{user: &domain.User{ID: id, Email: "sarah@example.com", Budget: "$2000"}}, &fakeLeadService{}))

	w := doJSON(t, r, http.MethodGet, "/users/"+id, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	var u domain.User
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.Budget != "$2000" {
		t.Fatalf("profile fields missing from response: %+v", u)
	}

	if w := doJSON(t, r, http.MethodGet, "/users/not-a-uuid", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", w.Code)
	}

	missing := newTestRouter(New(&fakeTurnService{}, &fakeConvService{},
		&fakeUserService{err: services.ErrUserNotFound}, &fakeLeadService{}))
	if w := doJSON(t, missing, http.MethodGet, "/users/"+uuid.NewString(), "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetUserLead_Flows(t *testing.T) {
	id := uuid.NewString()

	r := newTestRouter(New(&fakeTurnService{}, &fakeConvService{}, &fakeUserService{},
		&fakeLeadService{lead: &domain.Lead{ID: "l-1", UserID: id, Signal: "viewing_requested"}}))
	w := doJSON(t, r, http.MethodGet, "/users/"+id+"/lead", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	missing := newTestRouter(New(&fakeTurnService{}, &fakeConvService{}, &fakeUserService{},
		&fakeLeadService{err: services.ErrLeadNotFound}))
	if w := doJSON(t, missing, http.MethodGet, "/users/"+uuid.NewString()+"/lead", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAddLeadNote_Flows(t *testing.T) {
	id := uuid.NewString()

	r := newTestRouter(New(&fakeTurnService{}, &fakeConvService{}, &fakeUserService{},
		&fakeLeadService{lead: &domain.Lead{ID: id, Notes: []string{"called back"}}}))

	w := doJSON(t, r, http.MethodPost, "/leads/"+id+"/notes", `{"note":"called back"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	if w := doJSON(t, r, http.MethodPost, "/leads/not-a-uuid/notes", `{"note":"x"}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/leads/"+id+"/notes", `{}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing note, got %d", w.Code)
	}

	missing := newTestRouter(New(&fakeTurnService{}, &fakeConvService{}, &fakeUserService{},
		&fakeLeadService{err: services.ErrLeadNotFound}))
	if w := doJSON(t, missing, http.MethodPost, "/leads/"+uuid.NewString()+"/notes", `{"note":"x"}`, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListDueLeads(t *testing.T) {
	r := newTestRouter(New(&fakeTurnService{}, &fakeConvService{}, &fakeUserService{},
		&fakeLeadService{due: []domain.Lead{{ID: "l-1"}, {ID: "l-2"}}}))

	w := doJSON(t, r, http.MethodGet, "/leads/due", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	var leads []domain.Lead
	if err := json.Unmarshal(w.Body.Bytes(), &leads); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("expected 2 due leads, got %d", len(leads))
	}
}
