package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.observeMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(newCORSPolicy(s.cfg.CORS).middleware)
	r.Use(limitBody)

	// Listings
	r.Get("/devices-list", s.handleListDevices)
	r.Get("/rooms-list", s.handleListRooms)
	r.Get("/house-list", s.handleListHouses)

	// Devices
	r.Post("/device", s.handleCreateDevice)
	r.Get("/device/{id}", s.handleGetDevice)
	r.Get("/device/{id}/var", s.handleGetDeviceVariable)
	r.Get("/device/{id}/state", s.handleToggleDevice)
	r.Get("/device/{id}/remove", s.handleRemoveDevice)

	// Rooms
	r.Post("/room", s.handleCreateRoom)
	r.Get("/room/{id}", s.handleGetRoom)
	r.Get("/room/{id}/list", s.handleListRoomDevices)
	r.Get("/room/{id}/remove", s.handleRemoveRoom)

	// Houses
	r.Post("/house", s.handleCreateHouse)
	r.Get("/house/{id}", s.handleGetHouse)
	r.Get("/house/{id}/list", s.handleListHouseRooms)
	r.Get("/house/{id}/remove", s.handleRemoveHouse)

	r.Get("/report/{id}", s.handleHouseReport)

	// Operations
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/system", s.handleSystem)
	})

	if s.metricsCfg.Enabled {
		r.Handle(s.metricsPath(), s.metrics.handler())
	}

	r.Get(s.wsCfg.Path, s.handleWebSocket)

	return r
}

func (s *Server) metricsPath() string {
	if s.metricsCfg.Path == "" {
		return "/metrics"
	}
	return s.metricsCfg.Path
}

// handleHealth returns the server health status. A failing database ping
// reports "degraded" with 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.acquireTimeout)
	defer cancel()

	status, code, dbStatus := "ok", http.StatusOK, "ok"
	if err := s.db.HealthCheck(ctx); err != nil {
		status, code, dbStatus = "degraded", http.StatusServiceUnavailable, err.Error()
	}

	writeJSON(w, code, map[string]any{
		"status":   status,
		"version":  s.version,
		"database": dbStatus,
	})
}

// pathID parses the {id} path parameter as a UUID. A malformed id answers
// 404 with the parse error and returns false.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeText(w, http.StatusNotFound, "UUID parsing failed: "+err.Error())
		return "", false
	}
	return id.String(), true
}
