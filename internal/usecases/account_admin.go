package usecases

import (
	"context"
	"fmt"

	"elevex/internal/entities"
)

// AccountStore mutates stored accounts.
type AccountStore interface {
	UpdatePlan(ctx context.Context, id, plan string) error
	UpdateStatus(ctx context.Context, id, status string) error
}

// AccountAdmin applies administrative account changes that span more than
// one store.
type AccountAdmin struct {
	users  AccountStore
	ledger *QuotaLedger
}

func NewAccountAdmin(users AccountStore, ledger *QuotaLedger) *AccountAdmin {
	return &AccountAdmin{users: users, ledger: ledger}
}

// ApplyPlan moves the account onto a plan. The new plan starts clean: the
// quota window restarts and the account reactivates.
func (a *AccountAdmin) ApplyPlan(ctx context.Context, userID, planID string) error {
	if _, ok := entities.BuiltinPlans()[planID]; !ok {
		return fmt.Errorf("unknown plan %q", planID)
	}
	if err := a.users.UpdatePlan(ctx, userID, planID); err != nil {
		return err
	}
	if err := a.users.UpdateStatus(ctx, userID, entities.StatusActive); err != nil {
		return err
	}
	return a.ledger.Reset(ctx, userID)
}
