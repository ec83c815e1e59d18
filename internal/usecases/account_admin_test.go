package usecases

import (
	"context"
	"testing"
	"time"

	"elevex/internal/entities"
	"elevex/internal/repository"
)

func (f *fakeUserStore) UpdatePlan(_ context.Context, id, plan string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Plan = plan
	f.users[id] = u
	return nil
}

func (f *fakeUserStore) UpdateStatus(_ context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Status = status
	f.users[id] = u
	return nil
}

func TestApplyPlanResetsQuotaAndReactivates(t *testing.T) {
	users := newFakeUserStore()
	windows := newFakeWindowStore()
	resolver := NewPolicyResolver(newFakeOverrideStore(), time.Minute)
	ledger := NewQuotaLedger(windows, resolver)
	admin := NewAccountAdmin(users, ledger)
	ctx := context.Background()

	if err := users.Create(ctx, entities.User{ID: "u1", Plan: "free", Status: entities.StatusOverdue}); err != nil {
		t.Fatal(err)
	}
	if allowed, _, err := ledger.Consume(ctx, "u1", "free"); err != nil || !allowed {
		t.Fatalf("seed consume: allowed=%v err=%v", allowed, err)
	}

	if err := admin.ApplyPlan(ctx, "u1", "iniciante"); err != nil {
		t.Fatal(err)
	}

	got, err := users.GetByID(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Plan != "iniciante" {
		t.Fatalf("plan = %q", got.Plan)
	}
	if got.Status != entities.StatusActive {
		t.Fatalf("status = %q, plan application must reactivate", got.Status)
	}
	if _, ok, _ := windows.Get(ctx, "u1"); ok {
		t.Fatal("plan application must restart the quota window")
	}

	st, err := ledger.Status(ctx, "u1", got.Plan)
	if err != nil {
		t.Fatal(err)
	}
	if st.Used != 0 {
		t.Fatalf("used = %d on the fresh plan", st.Used)
	}
}

func TestApplyPlanRejectsUnknownPlan(t *testing.T) {
	users := newFakeUserStore()
	ledger := NewQuotaLedger(newFakeWindowStore(), NewPolicyResolver(newFakeOverrideStore(), time.Minute))
	admin := NewAccountAdmin(users, ledger)
	ctx := context.Background()

	if err := users.Create(ctx, entities.User{ID: "u1", Plan: "free", Status: entities.StatusActive}); err != nil {
		t.Fatal(err)
	}
	if err := admin.ApplyPlan(ctx, "u1", "platinum"); err == nil {
		t.Fatal("unknown plan accepted")
	}
	got, _ := users.GetByID(ctx, "u1")
	if got.Plan != "free" {
		t.Fatalf("plan changed to %q on a rejected apply", got.Plan)
	}
}
