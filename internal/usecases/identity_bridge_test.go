package usecases

import (
	"context"
	"testing"
)

func TestResolvePassesUUIDsThrough(t *testing.T) {
	bridge := NewIdentityBridge(newFakeMappingStore())
	ctx := context.Background()

	id := "3f2b8c1a-9d4e-4f6a-8b2c-1d5e7f9a0b3c"
	got, err := bridge.Resolve(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Fatalf("Resolve(%q) = %q, want passthrough", id, got)
	}
}

func TestResolveMintsStableUUIDForLocalID(t *testing.T) {
	store := newFakeMappingStore()
	bridge := NewIdentityBridge(store)
	ctx := context.Background()

	first, err := bridge.Resolve(ctx, "user-1712345678901")
	if err != nil {
		t.Fatal(err)
	}
	if !uuidRe.MatchString(first) {
		t.Fatalf("minted id %q is not a uuid", first)
	}

	second, err := bridge.Resolve(ctx, "user-1712345678901")
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Fatalf("same local id resolved to %q then %q", first, second)
	}

	other, err := bridge.Resolve(ctx, "user-9999999999999")
	if err != nil {
		t.Fatal(err)
	}
	if other == first {
		t.Fatal("distinct local ids must not share a remote uuid")
	}
}

func TestResolveRejectsEmptyLocalID(t *testing.T) {
	bridge := NewIdentityBridge(newFakeMappingStore())
	if _, err := bridge.Resolve(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty local id")
	}
}
