package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token uses
const (
	TokenUseID      = "id"
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// Claims represents JWT claims
type Claims struct {
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token operations
type JWTManager struct {
	secret          []byte
	issuer          string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:          []byte(secret),
		issuer:          issuer,
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
	}
}

func (m *JWTManager) sign(subject string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    m.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// GenerateIDToken generates a token carrying the user's profile claims
func (m *JWTManager) GenerateIDToken(subject, email, name string) (string, error) {
	return m.sign(subject, Claims{Email: email, Name: name, TokenUse: TokenUseID}, m.accessTokenTTL)
}

// GenerateAccessToken generates a new access token
func (m *JWTManager) GenerateAccessToken(subject string) (string, error) {
	return m.sign(subject, Claims{TokenUse: TokenUseAccess}, m.accessTokenTTL)
}

// GenerateRefreshToken generates a new refresh token
func (m *JWTManager) GenerateRefreshToken(subject string) (string, error) {
	return m.sign(subject, Claims{TokenUse: TokenUseRefresh}, m.refreshTokenTTL)
}

// GenerateTokenSet generates the id, access and refresh tokens for a session
func (m *JWTManager) GenerateTokenSet(subject, email, name string) (idToken, accessToken, refreshToken string, err error) {
	idToken, err = m.GenerateIDToken(subject, email, name)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to generate id token: %w", err)
	}

	accessToken, err = m.GenerateAccessToken(subject)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err = m.GenerateRefreshToken(subject)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return idToken, accessToken, refreshToken, nil
}

// ValidateToken validates a token of the given use and returns its claims.
// The service only issues tokens; this is the verifying half for tests and
// relying parties sharing the secret. Expiry and issuer are enforced.
func (m *JWTManager) ValidateToken(tokenString, use string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.TokenUse != use {
		return nil, fmt.Errorf("unexpected token use %q", claims.TokenUse)
	}

	return claims, nil
}
