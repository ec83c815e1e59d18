package usecases

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"elevex/internal/entities"
)

// OverrideStore persists admin plan edits.
type OverrideStore interface {
	LoadAll(ctx context.Context) (map[string]entities.PlanOverride, error)
	SaveAll(ctx context.Context, overrides map[string]entities.PlanOverride) error
}

// PolicyResolver merges builtin plan policies with stored admin overrides.
// Overrides are cached with a short TTL so the hot path (every quota check)
// does not hit storage.
type PolicyResolver struct {
	store    OverrideStore
	cacheTTL time.Duration

	mu       sync.Mutex
	cached   map[string]entities.PlanOverride
	cachedAt time.Time
}

func NewPolicyResolver(store OverrideStore, cacheTTL time.Duration) *PolicyResolver {
	return &PolicyResolver{store: store, cacheTTL: cacheTTL}
}

// Resolve returns the effective policy for a plan ID. Unknown plan IDs fall
// back to the free tier so a corrupted account never gets unlimited access.
func (p *PolicyResolver) Resolve(ctx context.Context, planID string) (entities.PlanPolicy, error) {
	plans, err := p.ResolveAll(ctx)
	if err != nil {
		return entities.PlanPolicy{}, err
	}
	if plan, ok := plans[planID]; ok {
		return plan, nil
	}
	return plans["free"], nil
}

// ResolveAll returns every effective policy keyed by plan ID.
func (p *PolicyResolver) ResolveAll(ctx context.Context) (map[string]entities.PlanPolicy, error) {
	overrides, err := p.overrides(ctx)
	if err != nil {
		return nil, err
	}
	plans := entities.BuiltinPlans()
	for id, o := range overrides {
		plan, ok := plans[id]
		if !ok {
			continue
		}
		if o.Price != nil {
			plan.Price = *o.Price
		}
		if o.LimitPer24h != nil {
			plan.LimitPer24h = *o.LimitPer24h
		}
		if o.DeviceLimit != nil {
			plan.DeviceLimit = *o.DeviceLimit
		}
		if o.Features != nil {
			plan.Features = append([]string(nil), (*o.Features)...)
		}
		plans[id] = plan
	}
	return plans, nil
}

// SaveOverrides replaces the stored override set and drops the cache so the
// next Resolve sees the new values immediately.
func (p *PolicyResolver) SaveOverrides(ctx context.Context, overrides map[string]entities.PlanOverride) error {
	builtin := entities.BuiltinPlans()
	for id, o := range overrides {
		if _, ok := builtin[id]; !ok {
			return fmt.Errorf("unknown plan %q", id)
		}
		if o.Price != nil && *o.Price < 0 {
			return fmt.Errorf("plan %q: price must not be negative", id)
		}
		if o.LimitPer24h != nil && *o.LimitPer24h < entities.Unlimited {
			return fmt.Errorf("plan %q: limit must be non-negative or unlimited", id)
		}
		if o.DeviceLimit != nil && *o.DeviceLimit < 1 {
			return fmt.Errorf("plan %q: device limit must be at least 1", id)
		}
		if o.Features != nil {
			cleaned := normalizeFeatures(*o.Features)
			o.Features = &cleaned
			overrides[id] = o
		}
	}
	if err := p.store.SaveAll(ctx, overrides); err != nil {
		return err
	}
	p.mu.Lock()
	p.cached = nil
	p.cachedAt = time.Time{}
	p.mu.Unlock()
	return nil
}

// normalizeFeatures trims entries and drops blanks and duplicates, keeping
// the first occurrence's position.
func normalizeFeatures(features []string) []string {
	cleaned := make([]string, 0, len(features))
	seen := make(map[string]struct{}, len(features))
	for _, f := range features {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		cleaned = append(cleaned, f)
	}
	return cleaned
}

func (p *PolicyResolver) overrides(ctx context.Context) (map[string]entities.PlanOverride, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil && time.Since(p.cachedAt) < p.cacheTTL {
		return p.cached, nil
	}
	overrides, err := p.store.LoadAll(ctx)
	if err != nil {
		// Fall back to the last loaded set when the store is down.
		if p.cached != nil {
			return p.cached, nil
		}
		return nil, fmt.Errorf("load overrides: %w", err)
	}
	p.cached = overrides
	p.cachedAt = time.Now()
	return p.cached, nil
}
