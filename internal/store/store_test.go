package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestMigrationIdempotency(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	for i := range 3 {
		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("Migrate() call %d: %v", i+1, err)
		}
	}

	run := &Run{ID: "migration-test", Seed: "1", Config: "{}", Status: StatusOK, EngineVersion: "dev"}
	if err := db.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() after repeated migrations: %v", err)
	}
	if _, err := db.GetRun(ctx, "migration-test"); err != nil {
		t.Fatalf("GetRun() after repeated migrations: %v", err)
	}
}

func TestSaveAndGetRun(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	run := &Run{
		Seed:          "12345",
		Config:        `{"enemy":true}`,
		OutputRoot:    "/tmp/GoldSaucer_12345",
		Status:        StatusOK,
		EngineVersion: "1.0.0",
		DurationMS:    42,
		Attempts:      map[string]int{"enemy": 1, "materia": 3},
	}
	if err := db.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if run.ID == "" {
		t.Fatal("SaveRun() did not assign an ID")
	}

	got, err := db.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.Seed != run.Seed || got.Config != run.Config || got.OutputRoot != run.OutputRoot {
		t.Errorf("GetRun() = %+v, want %+v", got, run)
	}
	if got.DurationMS != 42 || got.EngineVersion != "1.0.0" {
		t.Errorf("GetRun() = %+v", got)
	}
	if len(got.Attempts) != 2 || got.Attempts["materia"] != 3 {
		t.Errorf("Attempts = %v, want %v", got.Attempts, run.Attempts)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestGetRunMissing(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.GetRun(context.Background(), "nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetRun() error = %v, want sql.ErrNoRows", err)
	}
}

func TestSaveRunDuplicateID(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	run := &Run{ID: "dup", Seed: "1", Config: "{}", Status: StatusOK, EngineVersion: "dev", Attempts: map[string]int{"items": 1}}
	if err := db.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveRun(ctx, run); err == nil {
		t.Fatal("second SaveRun() with the same ID succeeded")
	}
	got, err := db.GetRun(ctx, "dup")
	if err != nil {
		t.Fatal(err)
	}
	if got.Attempts["items"] != 1 {
		t.Errorf("failed insert changed attempts: %v", got.Attempts)
	}
}

func TestChanges(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	run := &Run{Seed: "7", Config: "{}", Status: StatusOK, EngineVersion: "dev"}
	if err := db.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	changes := []Change{
		{Category: "pickups", Location: "md1stin", Before: "Potion", After: "Ether"},
		{Category: "materia", Location: "init/stock/0", Before: "Fire", After: "Ice"},
		{Category: "keyItems", Location: "nibel", Before: "Mythril", After: "Keystone"},
	}
	if err := db.SaveChanges(ctx, run.ID, changes); err != nil {
		t.Fatalf("SaveChanges() error = %v", err)
	}
	if err := db.SaveChanges(ctx, run.ID, nil); err != nil {
		t.Fatalf("SaveChanges(nil) error = %v", err)
	}

	tests := []struct {
		name          string
		limit, offset int
		want          []string
	}{
		{"all", 0, 0, []string{"md1stin", "init/stock/0", "nibel"}},
		{"first page", 2, 0, []string{"md1stin", "init/stock/0"}},
		{"second page", 2, 2, []string{"nibel"}},
		{"past the end", 2, 4, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.GetChanges(ctx, run.ID, tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("GetChanges() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("GetChanges() returned %d entries, want %d", len(got), len(tt.want))
			}
			for i, c := range got {
				if c.Location != tt.want[i] || c.RunID != run.ID {
					t.Errorf("entry %d = %+v, want location %s", i, c, tt.want[i])
				}
			}
		})
	}
}

func TestChangesRequireRun(t *testing.T) {
	db := newTestDB(t)
	err := db.SaveChanges(context.Background(), "missing", []Change{{Category: "shops", Location: "0", Before: "a", After: "b"}})
	if err == nil {
		t.Error("SaveChanges() for an unknown run succeeded")
	}
}

func TestListRunsBySeed(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	for _, r := range []*Run{
		{ID: "a1", Seed: "a", Config: "{}", Status: StatusOK, EngineVersion: "dev"},
		{ID: "b1", Seed: "b", Config: "{}", Status: StatusOK, EngineVersion: "dev"},
		{ID: "a2", Seed: "a", Config: "{}", Status: StatusFailed, Error: "boom", ExitCode: 3, EngineVersion: "dev"},
	} {
		if err := db.SaveRun(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := db.ListRunsBySeed(ctx, "a")
	if err != nil {
		t.Fatalf("ListRunsBySeed() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRunsBySeed() returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != "a2" || runs[1].ID != "a1" {
		t.Errorf("order = %s, %s, want a2, a1", runs[0].ID, runs[1].ID)
	}
	if runs[0].ExitCode != 3 || runs[0].Error != "boom" {
		t.Errorf("failed run = %+v", runs[0])
	}

	none, err := db.ListRunsBySeed(ctx, "zzz")
	if err != nil || len(none) != 0 {
		t.Errorf("ListRunsBySeed(unknown) = %v, %v", none, err)
	}
}
