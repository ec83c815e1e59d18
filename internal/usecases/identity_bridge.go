package usecases

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"elevex/internal/interfaces"
)

var uuidRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// MappingStore persists the local ID to remote UUID map.
type MappingStore interface {
	Lookup(ctx context.Context, localID string) (string, bool, error)
	Insert(ctx context.Context, localID, remoteID string) error
}

// IdentityBridge maps arbitrary local IDs onto remote UUIDs. IDs that are
// already UUIDs pass through untouched; anything else gets a fresh UUID
// minted once and remembered forever, so the same local ID always resolves
// to the same remote row.
type IdentityBridge struct {
	store MappingStore
}

func NewIdentityBridge(store MappingStore) *IdentityBridge {
	return &IdentityBridge{store: store}
}

// Resolve returns the remote UUID for a local ID.
func (b *IdentityBridge) Resolve(ctx context.Context, localID string) (string, error) {
	if localID == "" {
		return "", fmt.Errorf("%w: empty local id", interfaces.ErrIdentityMapping)
	}
	if uuidRe.MatchString(localID) {
		return localID, nil
	}
	remoteID, ok, err := b.store.Lookup(ctx, localID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrIdentityMapping, err)
	}
	if ok {
		return remoteID, nil
	}
	remoteID = uuid.NewString()
	if err := b.store.Insert(ctx, localID, remoteID); err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrIdentityMapping, err)
	}
	return remoteID, nil
}

// Lookup returns the remote UUID only when a mapping already exists. It never
// mints a new one.
func (b *IdentityBridge) Lookup(ctx context.Context, localID string) (string, bool, error) {
	if localID == "" {
		return "", false, fmt.Errorf("%w: empty local id", interfaces.ErrIdentityMapping)
	}
	if uuidRe.MatchString(localID) {
		return localID, true, nil
	}
	remoteID, ok, err := b.store.Lookup(ctx, localID)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", interfaces.ErrIdentityMapping, err)
	}
	return remoteID, ok, nil
}
