// README: Trip store integration tests; skipped unless FLOCK_DB_DSN points at a migrated database.
package trip

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"flock/internal/types"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("FLOCK_DB_DSN")
	if dsn == "" {
		t.Skip("FLOCK_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "0001_init.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	return pool
}

func TestStore_CRUD(t *testing.T) {
	pool := setupTestDB(t)
	store := NewStore(pool)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	tr := &Trip{
		ID:            types.NewID(),
		OwnerID:       "owner-" + types.NewID().String(),
		Name:          "Store test",
		Destination:   "Lincoln Field",
		DestinationID: types.NewID(),
		Riders: []Rider{
			NewRider("Ana", "12 Oak St"),
			NewRider("Ben", "9 Elm St"),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	tr.Riders[0].IsDriver = true
	t.Cleanup(func() { _ = store.Delete(ctx, tr.ID) })

	if err := store.Create(ctx, tr); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := store.Get(ctx, tr.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Riders) != 2 || got.Riders[0].Name != "Ana" || !got.Riders[0].IsDriver {
		t.Errorf("riders = %+v", got.Riders)
	}

	if got.OwnerID != tr.OwnerID {
		t.Errorf("OwnerID = %q, want %q", got.OwnerID, tr.OwnerID)
	}
	owned, err := store.List(ctx, tr.OwnerID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(owned) != 1 || owned[0].ID != tr.ID {
		t.Errorf("List(owner) = %d trips", len(owned))
	}
	if others, _ := store.List(ctx, "nobody-"+tr.OwnerID); len(others) != 0 {
		t.Errorf("List(other owner) = %d trips, want 0", len(others))
	}

	got.Riders = got.Riders[1:]
	got.UseSuggestedDrivers = true
	if err := store.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, _ := store.Get(ctx, tr.ID)
	if len(again.Riders) != 1 || !again.UseSuggestedDrivers {
		t.Errorf("after update = %+v", again)
	}

	if err := store.Delete(ctx, tr.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, tr.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
	if err := store.Update(ctx, tr); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update missing err = %v", err)
	}
}
