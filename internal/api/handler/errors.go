package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/movie-catalog/internal/api/response"
	"github.com/Rrens/movie-catalog/internal/domain"
)

const internalErrorName = "InternalError"

// statusFor maps a tagged error to its HTTP status. Upstream failures carry
// their own status when the provider reported one.
func statusFor(appErr *domain.Error, fallback int) int {
	switch appErr.Kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindProfileCreationErr:
		return http.StatusInternalServerError
	}
	if appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return fallback
}

// writeError renders err as {message, error}. An empty message uses the
// error's own message.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback int, message string) {
	appErr, ok := domain.AsError(err)
	if !ok {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("untagged error reached handler")
		if message == "" {
			message = "Internal server error"
		}
		response.Error(w, fallback, message, internalErrorName)
		return
	}

	status := statusFor(appErr, fallback)
	if message == "" {
		message = appErr.Message
	}

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).
		Str("path", r.URL.Path).
		Str("error_kind", string(appErr.Kind)).
		Int("status", status).
		Msg("request failed")

	if appErr.Kind == domain.KindNotFound {
		response.NotFound(w, message)
		return
	}
	response.Error(w, status, message, appErr.ErrorName())
}
