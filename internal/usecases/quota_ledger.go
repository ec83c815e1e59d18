package usecases

import (
	"context"
	"sync"
	"time"

	"elevex/internal/entities"
)

const quotaWindow = 24 * time.Hour

// WindowStore persists per-user rolling windows.
type WindowStore interface {
	Get(ctx context.Context, userID string) (entities.QuotaWindow, bool, error)
	Put(ctx context.Context, w entities.QuotaWindow) error
	Delete(ctx context.Context, userID string) error
}

// QuotaLedger charges and refunds query credits against a rolling 24h
// window. The window resets lazily: expiry is checked on access, never by a
// background timer. All mutating calls are serialized under one mutex.
type QuotaLedger struct {
	store    WindowStore
	resolver *PolicyResolver

	mu sync.Mutex
}

func NewQuotaLedger(store WindowStore, resolver *PolicyResolver) *QuotaLedger {
	return &QuotaLedger{store: store, resolver: resolver}
}

// Status reports the user's current quota without charging.
func (l *QuotaLedger) Status(ctx context.Context, userID, planID string) (entities.QuotaStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status(ctx, userID, planID)
}

// Consume charges one credit. Whether the charge is allowed is decided from
// the state before the increment, so the last credit of a window is still
// granted. A disallowed consume charges nothing; exhaustion is a state, not
// an error.
func (l *QuotaLedger) Consume(ctx context.Context, userID, planID string) (bool, entities.QuotaStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	plan, err := l.resolver.Resolve(ctx, planID)
	if err != nil {
		return false, entities.QuotaStatus{}, err
	}
	if plan.IsUnlimited() {
		return true, l.unlimitedStatus(plan), nil
	}

	w, err := l.freshWindow(ctx, userID)
	if err != nil {
		return false, entities.QuotaStatus{}, err
	}
	if w.Used >= plan.LimitPer24h {
		return false, l.buildStatus(plan, w), nil
	}

	if w.WindowStart.IsZero() {
		// First charge of a new window anchors its start. A window fully
		// refunded back to zero keeps its original anchor.
		w.WindowStart = time.Now().UTC()
	}
	w.Used++
	if err := l.store.Put(ctx, w); err != nil {
		return false, entities.QuotaStatus{}, err
	}
	return true, l.buildStatus(plan, w), nil
}

// Refund returns one credit. Used floors at zero and the window start is
// left untouched, so a refund never extends or shifts the window.
func (l *QuotaLedger) Refund(ctx context.Context, userID, planID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	plan, err := l.resolver.Resolve(ctx, planID)
	if err != nil {
		return err
	}
	if plan.IsUnlimited() {
		return nil
	}

	w, err := l.freshWindow(ctx, userID)
	if err != nil {
		return err
	}
	if w.Used == 0 {
		return nil
	}
	w.Used--
	return l.store.Put(ctx, w)
}

// Reset wipes the user's window. Admin use only.
func (l *QuotaLedger) Reset(ctx context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Delete(ctx, userID)
}

func (l *QuotaLedger) status(ctx context.Context, userID, planID string) (entities.QuotaStatus, error) {
	plan, err := l.resolver.Resolve(ctx, planID)
	if err != nil {
		return entities.QuotaStatus{}, err
	}
	if plan.IsUnlimited() {
		return l.unlimitedStatus(plan), nil
	}
	w, err := l.freshWindow(ctx, userID)
	if err != nil {
		return entities.QuotaStatus{}, err
	}
	return l.buildStatus(plan, w), nil
}

// freshWindow loads the user's window and resets it in place when the 24h
// span has elapsed. The reset is persisted before any status is reported.
func (l *QuotaLedger) freshWindow(ctx context.Context, userID string) (entities.QuotaWindow, error) {
	w, ok, err := l.store.Get(ctx, userID)
	if err != nil {
		return entities.QuotaWindow{}, err
	}
	if !ok {
		return entities.QuotaWindow{UserID: userID}, nil
	}
	if time.Since(w.WindowStart) >= quotaWindow {
		w.WindowStart = time.Now().UTC()
		w.Used = 0
		if err := l.store.Put(ctx, w); err != nil {
			return entities.QuotaWindow{}, err
		}
	}
	return w, nil
}

func (l *QuotaLedger) buildStatus(plan entities.PlanPolicy, w entities.QuotaWindow) entities.QuotaStatus {
	st := entities.QuotaStatus{
		Plan:      plan.ID,
		Limit:     plan.LimitPer24h,
		Used:      w.Used,
		Remaining: plan.LimitPer24h - w.Used,
		IsBlocked: w.Used >= plan.LimitPer24h,
	}
	if st.Remaining < 0 {
		st.Remaining = 0
	}
	if !w.WindowStart.IsZero() {
		st.ResetAt = w.WindowStart.Add(quotaWindow)
		if secs := int64(time.Until(st.ResetAt).Seconds()); secs > 0 {
			st.SecondsUntilReset = secs
		}
	}
	return st
}

func (l *QuotaLedger) unlimitedStatus(plan entities.PlanPolicy) entities.QuotaStatus {
	return entities.QuotaStatus{
		Plan:      plan.ID,
		Limit:     entities.Unlimited,
		Remaining: entities.Unlimited,
	}
}
