// Package local is a self-hosted identity provider: bcrypt password hashes
// in an AccountStore and HS256 session tokens.
package local

import (
	"context"
	"errors"
	"net/http"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/Rrens/movie-catalog/internal/domain"
	"github.com/Rrens/movie-catalog/internal/identity"
	"github.com/Rrens/movie-catalog/internal/security"
)

const minPasswordLength = 8

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")
)

// Account is a provider-side user record
type Account struct {
	Subject      string    `json:"sub"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	Confirmed    bool      `json:"confirmed"`
	CreatedAt    time.Time `json:"created_at"`
}

// AccountStore persists accounts keyed by normalized email
type AccountStore interface {
	Create(ctx context.Context, account *Account) error
	Get(ctx context.Context, email string) (*Account, error)
}

// Provider implements identity.Gateway
type Provider struct {
	accounts    AccountStore
	tokens      *security.JWTManager
	autoConfirm bool
	cost        int
}

// Option customizes a Provider
type Option func(*Provider)

// WithBcryptCost overrides the password hashing cost
func WithBcryptCost(cost int) Option {
	return func(p *Provider) { p.cost = cost }
}

// NewProvider creates a new local identity provider
func NewProvider(accounts AccountStore, tokens *security.JWTManager, autoConfirm bool, opts ...Option) *Provider {
	p := &Provider{
		accounts:    accounts,
		tokens:      tokens,
		autoConfirm: autoConfirm,
		cost:        bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) SignUp(ctx context.Context, creds domain.Credentials, attrs identity.Attributes) error {
	email := domain.NormalizeEmail(creds.Email)
	if email == "" {
		return domain.NewUpstreamAuthError(identity.ErrInvalidParameter, "username is required", http.StatusBadRequest)
	}

	if err := checkPasswordPolicy(creds.Password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), p.cost)
	if err != nil {
		return domain.NewUpstreamAuthError(identity.ErrInvalidPassword, "password could not be hashed", http.StatusBadRequest)
	}

	account := &Account{
		Subject:      uuid.NewString(),
		Email:        email,
		Name:         attrs.Name,
		PasswordHash: string(hash),
		Confirmed:    p.autoConfirm,
		CreatedAt:    time.Now().UTC(),
	}

	if err := p.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrAccountExists) {
			return domain.NewUpstreamAuthError(identity.ErrUsernameExists, "An account with the given email already exists.", http.StatusConflict)
		}
		log.Error().Err(err).Msg("identity account store failure")
		return domain.NewUpstreamAuthError(identity.ErrProviderFailure, "identity provider unavailable", http.StatusServiceUnavailable)
	}

	return nil
}

func (p *Provider) Authenticate(ctx context.Context, creds domain.Credentials) (*domain.SessionTokens, error) {
	notAuthorized := domain.NewUpstreamAuthError(identity.ErrNotAuthorized, "Incorrect username or password.", http.StatusUnauthorized)

	account, err := p.accounts.Get(ctx, domain.NormalizeEmail(creds.Email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, notAuthorized
		}
		log.Error().Err(err).Msg("identity account store failure")
		return nil, domain.NewUpstreamAuthError(identity.ErrProviderFailure, "identity provider unavailable", http.StatusServiceUnavailable)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, notAuthorized
	}

	if !account.Confirmed {
		return nil, domain.NewUpstreamAuthError(identity.ErrUserNotConfirmed, "User is not confirmed.", http.StatusForbidden)
	}

	idToken, accessToken, refreshToken, err := p.tokens.GenerateTokenSet(account.Subject, account.Email, account.Name)
	if err != nil {
		return nil, domain.NewUpstreamAuthError(identity.ErrProviderFailure, "failed to issue tokens", http.StatusInternalServerError)
	}

	return &domain.SessionTokens{
		IDToken:      idToken,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func checkPasswordPolicy(password string) error {
	if len(password) < minPasswordLength {
		return domain.NewUpstreamAuthError(identity.ErrInvalidPassword, "Password did not conform with policy: Password not long enough", http.StatusBadRequest)
	}
	// bcrypt only reads the first 72 bytes
	if len(password) > 72 {
		return domain.NewUpstreamAuthError(identity.ErrInvalidPassword, "Password did not conform with policy: Password too long", http.StatusBadRequest)
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	switch {
	case !upper:
		return domain.NewUpstreamAuthError(identity.ErrInvalidPassword, "Password did not conform with policy: Password must have uppercase characters", http.StatusBadRequest)
	case !lower:
		return domain.NewUpstreamAuthError(identity.ErrInvalidPassword, "Password did not conform with policy: Password must have lowercase characters", http.StatusBadRequest)
	case !digit:
		return domain.NewUpstreamAuthError(identity.ErrInvalidPassword, "Password did not conform with policy: Password must have numeric characters", http.StatusBadRequest)
	}
	return nil
}
