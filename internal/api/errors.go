package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/nerrad567/smarthouse-core/internal/device"
	"github.com/nerrad567/smarthouse-core/internal/location"
	"github.com/nerrad567/smarthouse-core/internal/report"
)

// Entity names used in error bodies.
const (
	entityDevice = "device"
	entityRoom   = "room"
	entityHouse  = "house"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeText writes a plain-text response. Every error body is plain text.
func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	io.WriteString(w, message)
}

// writeBadRequest writes a 400 plain-text response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeText(w, http.StatusBadRequest, message)
}

// writeNotFound writes the 404 body for a lookup miss.
func writeNotFound(w http.ResponseWriter, entity, id string) {
	writeText(w, http.StatusNotFound, fmt.Sprintf("No %s found with UID: %s", entity, id))
}

// writeInternalError writes a 500 plain-text response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeText(w, http.StatusInternalServerError, message)
}

// writeError maps a repository or report error to a response. entity and id
// name the looked-up value for NotFound bodies.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, entity, id string, err error) {
	switch {
	case isNotFound(err):
		writeNotFound(w, entity, id)
	case errors.Is(err, report.ErrEmptyInput):
		writeJSON(w, http.StatusBadRequest, err.Error())
	case isValidation(err):
		writeBadRequest(w, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("store busy",
			"path", r.URL.Path,
			"request_id", requestID(r),
			"error", err,
		)
		writeText(w, http.StatusServiceUnavailable, "store busy: "+err.Error())
	default:
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", requestID(r),
			"error", err,
		)
		writeInternalError(w, err.Error())
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, device.ErrDeviceNotFound) ||
		errors.Is(err, location.ErrRoomNotFound) ||
		errors.Is(err, location.ErrHouseNotFound)
}

func isValidation(err error) bool {
	return errors.Is(err, device.ErrInvalidDevice) ||
		errors.Is(err, device.ErrInvalidName) ||
		errors.Is(err, device.ErrInvalidAddress) ||
		errors.Is(err, location.ErrInvalidName) ||
		errors.Is(err, location.ErrInvalidParent)
}
