package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"elevex/internal/entities"
	"elevex/internal/infrastructure"
	"elevex/internal/interfaces"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := infrastructure.OpenLocalDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open local db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestQuotaRepositoryRoundTrip(t *testing.T) {
	repo := NewQuotaRepository(openTestDB(t))
	ctx := context.Background()

	if _, ok, err := repo.Get(ctx, "u1"); err != nil || ok {
		t.Fatalf("fresh user: ok=%v err=%v", ok, err)
	}

	start := time.Now().UTC().Truncate(time.Second)
	w := entities.QuotaWindow{UserID: "u1", WindowStart: start, Used: 3}
	if err := repo.Put(ctx, w); err != nil {
		t.Fatal(err)
	}

	got, ok, err := repo.Get(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Used != 3 || !got.WindowStart.Equal(start) {
		t.Fatalf("got %+v", got)
	}

	w.Used = 4
	if err := repo.Put(ctx, w); err != nil {
		t.Fatal(err)
	}
	got, _, _ = repo.Get(ctx, "u1")
	if got.Used != 4 {
		t.Fatalf("upsert did not update, used = %d", got.Used)
	}

	if err := repo.Delete(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := repo.Get(ctx, "u1"); ok {
		t.Fatal("window survived delete")
	}
}

func TestIdentityRepositoryAppendOnly(t *testing.T) {
	repo := NewIdentityRepository(openTestDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, "user-123", "3f2b8c1a-9d4e-4f6a-8b2c-1d5e7f9a0b3c"); err != nil {
		t.Fatal(err)
	}
	got, ok, err := repo.Lookup(ctx, "user-123")
	if err != nil || !ok {
		t.Fatalf("lookup: ok=%v err=%v", ok, err)
	}
	if got != "3f2b8c1a-9d4e-4f6a-8b2c-1d5e7f9a0b3c" {
		t.Fatalf("got %q", got)
	}

	// Same pair again is fine, a different remote id is not.
	if err := repo.Insert(ctx, "user-123", got); err != nil {
		t.Fatalf("idempotent insert: %v", err)
	}
	if err := repo.Insert(ctx, "user-123", "00000000-0000-0000-0000-000000000000"); err == nil {
		t.Fatal("remap must be rejected")
	}
}

func TestIdentityRepositorySurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.db")
	db, err := infrastructure.OpenLocalDB(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := NewIdentityRepository(db).Insert(ctx, "tg-777", "3f2b8c1a-9d4e-4f6a-8b2c-1d5e7f9a0b3c"); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = infrastructure.OpenLocalDB(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	got, ok, err := NewIdentityRepository(db).Lookup(ctx, "tg-777")
	if err != nil || !ok {
		t.Fatalf("lookup after reopen: ok=%v err=%v", ok, err)
	}
	if got != "3f2b8c1a-9d4e-4f6a-8b2c-1d5e7f9a0b3c" {
		t.Fatalf("mapping changed across reopen: %q", got)
	}
}

func TestSessionCacheRoundTripAndReplace(t *testing.T) {
	repo := NewSessionCacheRepository(openTestDB(t))
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	older := entities.ChatSession{ID: "s1", UserID: "u1", Title: "antiga", LastMessageAt: now.Add(-time.Hour),
		Messages: []entities.Message{{ID: "m1", Role: entities.RoleUser, Text: "oi", Timestamp: now}}}
	newer := entities.ChatSession{ID: "s2", UserID: "u1", Title: "recente", LastMessageAt: now,
		PendingUserQuestion: "porta não fecha", KnownModel: "gen2"}
	for _, s := range []entities.ChatSession{older, newer} {
		if err := repo.Put(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.Get(ctx, "s2")
	if err != nil {
		t.Fatal(err)
	}
	if got.PendingUserQuestion != "porta não fecha" || got.KnownModel != "gen2" {
		t.Fatalf("clarification state lost: %+v", got)
	}

	list, err := repo.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "s2" {
		t.Fatalf("list order wrong: %+v", list)
	}

	if _, err := repo.Get(ctx, "missing"); err != interfaces.ErrSessionNotFound {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}

	replacement := []entities.ChatSession{{ID: "s3", UserID: "u1", Title: "remota", LastMessageAt: now}}
	if err := repo.ReplaceForUser(ctx, "u1", replacement); err != nil {
		t.Fatal(err)
	}
	list, _ = repo.ListForUser(ctx, "u1")
	if len(list) != 1 || list[0].ID != "s3" {
		t.Fatalf("replace not wholesale: %+v", list)
	}
}

func TestOverrideRepositorySaveAllReplaces(t *testing.T) {
	repo := NewOverrideRepository(openTestDB(t))
	ctx := context.Background()

	price := 14.99
	limit := 10
	if err := repo.SaveAll(ctx, map[string]entities.PlanOverride{
		"iniciante": {Price: &price, LimitPer24h: &limit},
		"free":      {LimitPer24h: &limit},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d overrides", len(got))
	}
	if got["iniciante"].Price == nil || *got["iniciante"].Price != 14.99 {
		t.Fatalf("price override lost: %+v", got["iniciante"])
	}
	if got["free"].Price != nil {
		t.Fatal("unset field must stay nil")
	}

	if err := repo.SaveAll(ctx, map[string]entities.PlanOverride{"free": {LimitPer24h: &limit}}); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.LoadAll(ctx)
	if len(got) != 1 {
		t.Fatalf("save must replace wholesale, got %d", len(got))
	}
}

func TestDeviceRepositoryCounts(t *testing.T) {
	repo := NewDeviceRepository(openTestDB(t))
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"d1", "d2"} {
		err := repo.Add(ctx, LinkedDevice{ID: id, UserID: "u1", Name: "bancada", LinkedAt: now.Add(time.Duration(i) * time.Minute)})
		if err != nil {
			t.Fatal(err)
		}
	}

	n, err := repo.CountForUser(ctx, "u1")
	if err != nil || n != 2 {
		t.Fatalf("count = %d err = %v", n, err)
	}

	list, err := repo.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "d1" {
		t.Fatalf("list = %+v", list)
	}

	if err := repo.Remove(ctx, "u2", "d1"); err != ErrDeviceNotFound {
		t.Fatalf("foreign remove err = %v, want ErrDeviceNotFound", err)
	}
	if n, _ := repo.CountForUser(ctx, "u1"); n != 2 {
		t.Fatal("foreign remove deleted a device")
	}

	if err := repo.Remove(ctx, "u1", "d1"); err != nil {
		t.Fatal(err)
	}
	if n, _ := repo.CountForUser(ctx, "u1"); n != 1 {
		t.Fatalf("count after remove = %d", n)
	}
}
