package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// API routes with method-specific routing
	mux.HandleFunc("GET /api/skills", s.HandleSearchSkills)
	mux.HandleFunc("GET /api/skills/{idOrSlug}", s.HandleGetSkill)
	mux.HandleFunc("POST /api/skills", s.HandlePublishSkill)
	mux.HandleFunc("GET /api/categories", s.HandleCategories)
	mux.HandleFunc("POST /api/telemetry/install", s.HandleTrackInstall)
	mux.HandleFunc("GET /api/export", s.HandleExport)
	mux.HandleFunc("GET /api/firehose/ws", s.HandleFirehoseWS)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
