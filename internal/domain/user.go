package domain

import (
	"strings"
	"time"
)

// Subscription tiers
const (
	SubscriptionTierFree    = "free"
	SubscriptionTierPremium = "premium"
)

// UserProfile is the profile record kept next to the identity-provider account
type UserProfile struct {
	ID               string         `json:"id" bson:"id"`
	Email            string         `json:"email" bson:"email"`
	Name             string         `json:"name" bson:"name"`
	CreatedAt        time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt" bson:"updatedAt"`
	Preferences      map[string]any `json:"preferences" bson:"preferences"`
	SubscriptionTier string         `json:"subscriptionTier" bson:"subscriptionTier"`
}

// Document renders the profile in the shape persisted by the store gateway.
// Timestamps are kept as RFC3339 strings so every driver stores the same value.
func (p *UserProfile) Document() map[string]any {
	prefs := p.Preferences
	if prefs == nil {
		prefs = map[string]any{}
	}
	return map[string]any{
		"id":               p.ID,
		"email":            p.Email,
		"name":             p.Name,
		"createdAt":        p.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updatedAt":        p.UpdatedAt.UTC().Format(time.RFC3339Nano),
		"preferences":      prefs,
		"subscriptionTier": p.SubscriptionTier,
	}
}

// UserCreate represents user registration data
type UserCreate struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=256"`
	Name     string `json:"name" validate:"required,max=255"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Credentials are passed to the identity provider and never persisted
type Credentials struct {
	Email    string
	Password string
}

// SessionTokens are returned verbatim from the identity provider
type SessionTokens struct {
	IDToken      string `json:"token"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
