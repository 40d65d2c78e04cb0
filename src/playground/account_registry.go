package playground

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fxreplay/fxreplay/src/playground/models"
)

// AccountRegistry is the explicit registry of trading accounts an engine
// serves. It is passed to the engine at construction instead of living as a
// package-level singleton, so isolated engines can coexist in tests.
type AccountRegistry struct {
	accounts map[uuid.UUID]*models.Account
	order    []uuid.UUID
}

func NewAccountRegistry(accounts ...*models.Account) *AccountRegistry {
	registry := &AccountRegistry{
		accounts: make(map[uuid.UUID]*models.Account),
	}

	for _, account := range accounts {
		registry.Add(account)
	}

	return registry
}

func (r *AccountRegistry) Add(account *models.Account) {
	if _, found := r.accounts[account.ID()]; found {
		return
	}

	r.accounts[account.ID()] = account
	r.order = append(r.order, account.ID())
}

func (r *AccountRegistry) Get(id uuid.UUID) (*models.Account, error) {
	account, found := r.accounts[id]
	if !found {
		return nil, fmt.Errorf("%w: %s", models.ErrAccountNotFound, id)
	}

	return account, nil
}

// Iter returns the accounts in registration order for deterministic
// evaluation across replays.
func (r *AccountRegistry) Iter() []*models.Account {
	out := make([]*models.Account, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.accounts[id])
	}

	return out
}

func (r *AccountRegistry) Len() int {
	return len(r.accounts)
}
