package repo

import (
	"context"
	"errors"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
)

// newTestDB opens a uniquely named shared in-memory database and migrates
// the full schema.
func newTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCreateUser_AssignsIDAndUTC(t *testing.T) {
	db := newTestDB(t, "user_create")
	ctx := context.Background()

	u, err := CreateUser(ctx, db, &domain.User{Email: "sarah@example.com"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("expected generated id")
	}
	if u.CreatedAt.Location() != u.CreatedAt.UTC().Location() {
		t.Fatalf("expected UTC timestamps")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t, "user_dup")
	ctx := context.Background()

	if _, err := CreateUser(ctx, db, &domain.User{Email: "sarah@example.com"}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := CreateUser(ctx, db, &domain.User{Email: "sarah@example.com"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	db := newTestDB(t, "user_email")
	ctx := context.Background()

	created, err := CreateUser(ctx, db, &domain.User{Email: "sarah@example.com"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := GetUserByEmail(ctx, db, "  SARAH@Example.COM ")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("id mismatch: %q vs %q", got.ID, created.ID)
	}

	if _, err := GetUserByEmail(ctx, db, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUser_AppliesDeltaAndRoundTripsLists(t *testing.T) {
	db := newTestDB(t, "user_update")
	ctx := context.Background()

	u, err := CreateUser(ctx, db, &domain.User{Email: "sarah@example.com"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	updated, err := UpdateUser(ctx, db, u.ID, map[string]any{
		"name":        "Sarah",
		"budget":      "$2000",
		"lease_terms": []string{"2 bedroom", "furnished"},
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Name != "Sarah" || updated.Budget != "$2000" {
		t.Fatalf("scalar delta not applied: %+v", updated)
	}

	// Re-read to prove the JSON column survived persistence.
	got, err := GetUser(ctx, db, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if len(got.LeaseTerms) != 2 {
		t.Fatalf("lease terms did not round-trip: %#v", got.LeaseTerms)
	}
}

func TestUpdateUser_MissingRow(t *testing.T) {
	db := newTestDB(t, "user_missing")
	if _, err := UpdateUser(context.Background(), db, "nope", map[string]any{"name": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
