// Package identity defines the contract with the identity provider that
// owns user credentials and issues session tokens.
package identity

import (
	"context"

	"github.com/Rrens/movie-catalog/internal/domain"
)

// Failure kinds reported by providers. They mirror the names hosted user
// pools return so existing clients can keep matching on them.
const (
	ErrUsernameExists   = "UsernameExistsException"
	ErrInvalidPassword  = "InvalidPasswordException"
	ErrInvalidParameter = "InvalidParameterException"
	ErrNotAuthorized    = "NotAuthorizedException"
	ErrUserNotConfirmed = "UserNotConfirmedException"
	ErrNotSupported     = "NotSupportedException"
	ErrProviderFailure  = "InternalErrorException"
)

// Attributes are the profile attributes sent along with a sign-up
type Attributes struct {
	Name  string
	Email string
}

// Gateway is the identity provider contract. Failures are returned as
// *domain.Error of kind KindUpstreamAuth.
type Gateway interface {
	SignUp(ctx context.Context, creds domain.Credentials, attrs Attributes) error
	Authenticate(ctx context.Context, creds domain.Credentials) (*domain.SessionTokens, error)
}
