package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/movie-catalog/internal/domain"
	"github.com/Rrens/movie-catalog/internal/identity"
	"github.com/Rrens/movie-catalog/internal/metrics"
	"github.com/Rrens/movie-catalog/internal/store"
)

// OrphanLedger records identity accounts that were created without a profile
type OrphanLedger interface {
	RecordOrphan(ctx context.Context, email, userID string, cause error) error
}

// AuthService runs the registration and login flows
type AuthService struct {
	identity        identity.Gateway
	store           store.Gateway
	usersCollection string
	ledger          OrphanLedger
	metrics         metrics.Recorder

	newID func() string
	now   func() time.Time
}

// NewAuthService creates a new auth service. ledger may be nil.
func NewAuthService(
	identityGateway identity.Gateway,
	storeGateway store.Gateway,
	usersCollection string,
	ledger OrphanLedger,
	recorder metrics.Recorder,
) *AuthService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &AuthService{
		identity:        identityGateway,
		store:           storeGateway,
		usersCollection: usersCollection,
		ledger:          ledger,
		metrics:         recorder,
		newID:           uuid.NewString,
		now:             time.Now,
	}
}

// Register creates the identity-provider account and then the profile
// record, returning the new user id. A provider rejection leaves nothing
// behind; a profile write failure leaves an orphan account that is logged
// and recorded in the ledger.
func (s *AuthService) Register(ctx context.Context, input domain.UserCreate) (string, error) {
	if err := validateInput(input); err != nil {
		s.metrics.RecordRegistration(metrics.OutcomeRejected)
		return "", err
	}

	email := domain.NormalizeEmail(input.Email)

	err := s.identity.SignUp(ctx,
		domain.Credentials{Email: email, Password: input.Password},
		identity.Attributes{Name: input.Name, Email: email},
	)
	if err != nil {
		s.metrics.RecordRegistration(metrics.OutcomeRejected)
		return "", upstreamAuthError(err)
	}

	now := s.now().UTC()
	profile := &domain.UserProfile{
		ID:               s.newID(),
		Email:            email,
		Name:             input.Name,
		CreatedAt:        now,
		UpdatedAt:        now,
		Preferences:      map[string]any{},
		SubscriptionTier: domain.SubscriptionTierFree,
	}

	if err := s.store.Put(ctx, s.usersCollection, profile.Document()); err != nil {
		s.recordOrphan(ctx, email, profile.ID, err)
		return "", domain.NewProfileCreationError(profile.ID, err)
	}

	s.metrics.RecordRegistration(metrics.OutcomeSuccess)
	log.Info().Str("user_id", profile.ID).Msg("user registered")

	return profile.ID, nil
}

func (s *AuthService) recordOrphan(ctx context.Context, email, userID string, cause error) {
	s.metrics.RecordRegistration(metrics.OutcomeFailed)
	s.metrics.RecordRegistrationOrphan()

	log.Error().
		Err(cause).
		Str("user_id", userID).
		Str("email", email).
		Str("error_kind", string(domain.KindProfileCreationErr)).
		Msg("identity account created without profile record")

	if s.ledger == nil {
		return
	}
	// the request context may already be cancelled
	ledgerCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.ledger.RecordOrphan(ledgerCtx, email, userID, cause); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to record orphan identity")
	}
}

// Login authenticates against the identity provider and returns its tokens
func (s *AuthService) Login(ctx context.Context, input domain.UserLogin) (*domain.SessionTokens, error) {
	if err := validateInput(input); err != nil {
		s.metrics.RecordLogin(metrics.OutcomeRejected)
		return nil, err
	}

	tokens, err := s.identity.Authenticate(ctx, domain.Credentials{
		Email:    domain.NormalizeEmail(input.Email),
		Password: input.Password,
	})
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeRejected)
		return nil, upstreamAuthError(err)
	}

	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	return tokens, nil
}

// upstreamAuthError keeps tagged provider errors and tags anything else
func upstreamAuthError(err error) error {
	if _, ok := domain.AsError(err); ok {
		return err
	}
	appErr := domain.NewUpstreamAuthError(identity.ErrProviderFailure, "identity provider request failed", 0)
	appErr.Err = err
	return appErr
}
