package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/contentgate/internal/domain/account"
)

// AccountsRepo is an in-process ledger. It enforces the same uniqueness and
// decrement guard as the postgres store, under one mutex.
type AccountsRepo struct {
	mu    sync.RWMutex
	items map[string]account.Account
}

func NewAccountsRepo() *AccountsRepo {
	return &AccountsRepo{
		items: make(map[string]account.Account),
	}
}

func (r *AccountsRepo) FindAccount(_ context.Context, userID string) (account.Account, error) {
	r.mu.RLock()
	a, ok := r.items[userID]
	r.mu.RUnlock()

	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (r *AccountsRepo) CreateAccount(_ context.Context, a account.Account) (account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[a.UserID]; exists {
		return account.Account{}, account.ErrAlreadyExists
	}
	r.items[a.UserID] = a
	return a, nil
}

func (r *AccountsRepo) ConsumeCredit(_ context.Context, userID string) (account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[userID]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	if !a.CanConsume() {
		return account.Account{}, account.ErrNoCredits
	}

	a.Credits--
	a.UpdatedAt = time.Now().UTC()
	r.items[userID] = a
	return a, nil
}

// Put overwrites a row; used to seed fixtures.
func (r *AccountsRepo) Put(a account.Account) {
	r.mu.Lock()
	r.items[a.UserID] = a
	r.mu.Unlock()
}

func (r *AccountsRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
