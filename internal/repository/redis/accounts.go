package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Rrens/movie-catalog/internal/identity/local"
)

const accountPrefix = "identity:account:"

// AccountStore persists local identity-provider accounts. SETNX on the
// normalized email makes duplicate sign-ups fail atomically.
type AccountStore struct {
	client *Client
}

// NewAccountStore creates a new account store
func NewAccountStore(client *Client) *AccountStore {
	return &AccountStore{client: client}
}

func (s *AccountStore) Create(ctx context.Context, account *local.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	created, err := s.client.rdb.SetNX(ctx, accountPrefix+account.Email, data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	if !created {
		return local.ErrAccountExists
	}
	return nil
}

func (s *AccountStore) Get(ctx context.Context, email string) (*local.Account, error) {
	data, err := s.client.rdb.Get(ctx, accountPrefix+email).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, local.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var account local.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &account, nil
}
