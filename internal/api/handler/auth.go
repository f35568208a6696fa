package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Rrens/movie-catalog/internal/api/response"
	"github.com/Rrens/movie-catalog/internal/domain"
	"github.com/Rrens/movie-catalog/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input domain.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, r, domain.NewValidationError("invalid request body"), http.StatusInternalServerError, "")
		return
	}

	userID, err := h.authService.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError, "")
		return
	}

	response.Created(w, map[string]string{
		"message": "User registered successfully",
		"userId":  userID,
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.UserLogin
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, r, domain.NewValidationError("invalid request body"), http.StatusUnauthorized, "Authentication failed")
		return
	}

	tokens, err := h.authService.Login(r.Context(), input)
	if err != nil {
		writeError(w, r, err, http.StatusUnauthorized, "Authentication failed")
		return
	}

	response.OK(w, map[string]string{
		"message":      "Login successful",
		"token":        tokens.IDToken,
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}
