package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/smarthouse-core/internal/location"
	"github.com/nerrad567/smarthouse-core/internal/report"
)

// handleListRooms returns the id report of all rooms as a JSON string.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()

	rooms, err := s.locations.ListRooms(ctx)
	if err != nil {
		s.writeError(w, r, entityRoom, "", err)
		return
	}
	text, err := report.IDs(report.KindRoom, rooms)
	if err != nil {
		s.writeError(w, r, entityRoom, "", err)
		return
	}
	writeJSON(w, http.StatusOK, text)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()

	room, err := s.locations.GetRoom(ctx, id)
	if err != nil {
		s.writeError(w, r, entityRoom, id, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// handleListRoomDevices returns the ids of the devices in a room.
func (s *Server) handleListRoomDevices(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()

	devices, err := s.devices.ListByRoom(ctx, id)
	if err != nil {
		s.writeError(w, r, entityRoom, id, err)
		return
	}
	ids, err := report.IDList(devices)
	if err != nil {
		s.writeError(w, r, entityRoom, id, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// handleRemoveRoom deletes a room without devices and returns its prior value.
func (s *Server) handleRemoveRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()

	room, err := s.locations.DeleteRoom(ctx, id)
	if err != nil {
		s.writeError(w, r, entityRoom, id, err)
		return
	}
	s.emit(EventRoomRemoved, room)
	writeJSON(w, http.StatusOK, room)
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var nr location.NewRoom
	if err := json.NewDecoder(r.Body).Decode(&nr); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()

	room, err := s.locations.CreateRoom(ctx, nr)
	if err != nil {
		s.writeError(w, r, entityRoom, "", err)
		return
	}
	s.emit(EventRoomCreated, room)
	writeJSON(w, http.StatusCreated, room)
}
