// Package api implements the HTTP server for the skills directory: search,
// skill lookup, categories, install telemetry, publishing, export and the
// WebSocket firehose.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/qaskills/qas/pkg/log"
	"github.com/qaskills/qas/pkg/realtime"
	"github.com/qaskills/qas/pkg/search"
	"github.com/qaskills/qas/pkg/storage"
)

type Server struct {
	store        *storage.Store
	search       *search.Service
	hub          *realtime.Hub
	publishToken string
	logger       *log.Logger
}

// NewServer wires the API server. The search service may be unconfigured, in
// which case searches run against the local store; hub may be nil when the
// firehose is not wanted; publishToken empty disables publishing.
func NewServer(store *storage.Store, searchService *search.Service, hub *realtime.Hub, publishToken string) *Server {
	return &Server{
		store:        store,
		search:       searchService,
		hub:          hub,
		publishToken: publishToken,
		logger:       log.ForComponent("api"),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
