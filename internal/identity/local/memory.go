package local

import (
	"context"
	"sync"
)

// MemoryAccounts is an in-process AccountStore for development and tests
type MemoryAccounts struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryAccounts creates an empty account store
func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{accounts: make(map[string]Account)}
}

func (m *MemoryAccounts) Create(ctx context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[account.Email]; ok {
		return ErrAccountExists
	}
	m.accounts[account.Email] = *account
	return nil
}

func (m *MemoryAccounts) Get(ctx context.Context, email string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}
