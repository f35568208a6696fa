// Package oidc authenticates against an external OpenID Connect provider
// using the resource owner password grant.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/Rrens/movie-catalog/internal/config"
	"github.com/Rrens/movie-catalog/internal/domain"
	"github.com/Rrens/movie-catalog/internal/identity"
)

// Provider implements identity.Gateway against an OIDC issuer
type Provider struct {
	config   oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewProvider discovers the issuer configuration
func NewProvider(ctx context.Context, cfg config.OIDCConfig) (*Provider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init OIDC provider: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	return &Provider{
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// SignUp is not part of OpenID Connect; accounts are created at the issuer
func (p *Provider) SignUp(ctx context.Context, creds domain.Credentials, attrs identity.Attributes) error {
	return domain.NewUpstreamAuthError(identity.ErrNotSupported, "sign-up is managed by the identity provider", http.StatusNotImplemented)
}

func (p *Provider) Authenticate(ctx context.Context, creds domain.Credentials) (*domain.SessionTokens, error) {
	token, err := p.config.PasswordCredentialsToken(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, translateTokenError(err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, domain.NewUpstreamAuthError(identity.ErrProviderFailure, "identity provider returned no id_token", http.StatusBadGateway)
	}

	if _, err := p.verifier.Verify(ctx, rawIDToken); err != nil {
		log.Warn().Err(err).Msg("ID token verification failed")
		return nil, domain.NewUpstreamAuthError(identity.ErrNotAuthorized, "id token verification failed", http.StatusUnauthorized)
	}

	return &domain.SessionTokens{
		IDToken:      rawIDToken,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}, nil
}

// translateTokenError maps OAuth2 token endpoint errors (RFC 6749 5.2) to
// identity failure kinds
func translateTokenError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return domain.NewUpstreamAuthError(identity.ErrProviderFailure, "identity provider unavailable", http.StatusServiceUnavailable)
	}

	switch re.ErrorCode {
	case "invalid_grant", "unauthorized_client", "invalid_client":
		return domain.NewUpstreamAuthError(identity.ErrNotAuthorized, "Incorrect username or password.", http.StatusUnauthorized)
	case "invalid_request":
		return domain.NewUpstreamAuthError(identity.ErrInvalidParameter, re.ErrorDescription, http.StatusBadRequest)
	}

	status := http.StatusUnauthorized
	if re.Response != nil && re.Response.StatusCode >= 500 {
		status = http.StatusBadGateway
	}
	return domain.NewUpstreamAuthError(identity.ErrProviderFailure, "identity provider rejected the request", status)
}
