package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u, err := CreateUser(context.Background(), db, &domain.User{Email: email})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestCreateLead_OnePerUser(t *testing.T) {
	db := newTestDB(t, "lead_one")
	ctx := context.Background()
	u := seedUser(t, db, "lead@example.com")

	l, err := CreateLead(ctx, db, u.ID, "viewing_requested", time.Now().UTC().Add(48*time.Hour))
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	if l.Status != "new" {
		t.Fatalf("expected status new, got %q", l.Status)
	}

	if _, err := CreateLead(ctx, db, u.ID, "contact_requested", time.Now().UTC()); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for second lead, got %v", err)
	}
}

func TestTouchLead_UpdatesSignalAndFollowUp(t *testing.T) {
	db := newTestDB(t, "lead_touch")
	ctx := context.Background()
	u := seedUser(t, db, "touch@example.com")

	l, err := CreateLead(ctx, db, u.ID, "contact_requested", time.Now().UTC())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	followUp := time.Now().UTC().Add(72 * time.Hour)
	if err := TouchLead(ctx, db, l.ID, "application_ready", followUp); err != nil {
		t.Fatalf("TouchLead: %v", err)
	}

	got, err := GetLeadByUser(ctx, db, u.ID)
	if err != nil {
		t.Fatalf("GetLeadByUser: %v", err)
	}
	if got.Signal != "application_ready" {
		t.Fatalf("signal not updated: %q", got.Signal)
	}

	if err := TouchLead(ctx, db, "missing", "x", followUp); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing lead, got %v", err)
	}
}

func TestAppendLeadNote_Accumulates(t *testing.T) {
	db := newTestDB(t, "lead_notes")
	ctx := context.Background()
	u := seedUser(t, db, "notes@example.com")

	l, err := CreateLead(ctx, db, u.ID, "viewing_requested", time.Now().UTC())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	if _, err := AppendLeadNote(ctx, db, l.ID, "first call done"); err != nil {
		t.Fatalf("AppendLeadNote: %v", err)
	}
	got, err := AppendLeadNote(ctx, db, l.ID, "viewing booked")
	if err != nil {
		t.Fatalf("AppendLeadNote: %v", err)
	}
	if len(got.Notes) != 2 || got.Notes[1] != "viewing booked" {
		t.Fatalf("notes did not accumulate: %#v", got.Notes)
	}
}

func TestListLeadsDueForFollowUp(t *testing.T) {
	db := newTestDB(t, "lead_due")
	ctx := context.Background()
	now := time.Now().UTC()

	due := seedUser(t, db, "due@example.com")
	later := seedUser(t, db, "later@example.com")

	if _, err := CreateLead(ctx, db, due.ID, "viewing_requested", now.Add(-time.Hour)); err != nil {
		t.Fatalf("CreateLead due: %v", err)
	}
	if _, err := CreateLead(ctx, db, later.ID, "contact_requested", now.Add(24*time.Hour)); err != nil {
		t.Fatalf("CreateLead later: %v", err)
	}

	out, err := ListLeadsDueForFollowUp(ctx, db, now)
	if err != nil {
		t.Fatalf("ListLeadsDueForFollowUp: %v", err)
	}
	if len(out) != 1 || out[0].UserID != due.ID {
		t.Fatalf("expected only the overdue lead, got %#v", out)
	}
}
