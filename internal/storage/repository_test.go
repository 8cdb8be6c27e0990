package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "spendy.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestSQLiteRepositoryGetSet(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if _, ok, err := repo.Get(ctx, "theme"); ok || err != nil {
		t.Fatalf("expected absent slot, got ok=%v err=%v", ok, err)
	}

	if err := repo.Set(ctx, "theme", []byte(`"light"`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Set(ctx, "theme", []byte(`"dark"`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, ok, err := repo.Get(ctx, "theme")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(got) != `"dark"` {
		t.Fatalf("expected last write to win, got %s", got)
	}
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestSQLiteRepositoryReopen(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()
	if err := repo.Set(ctx, "categories", []byte(`{"Income":[],"Expense":["Rent"]}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	repo.Close()

	// Migrations are idempotent across restarts.
	again, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()

	got, ok, err := again.Get(ctx, "categories")
	if err != nil || !ok || string(got) != `{"Income":[],"Expense":["Rent"]}` {
		t.Fatalf("unexpected value after reopen: %s ok=%v err=%v", got, ok, err)
	}
}
