package handler

import (
	"context"
	"net/http"

	"github.com/Rrens/movie-catalog/internal/api/response"
)

// Pinger is any backend the service needs before it can take traffic
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck reports ready once every dependency answers a ping
func ReadyCheck(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for name, dep := range deps {
			if err := dep.Ping(r.Context()); err != nil {
				response.Error(w, http.StatusServiceUnavailable, name+" not ready", "NotReady")
				return
			}
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}
