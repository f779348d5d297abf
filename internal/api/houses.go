package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/smarthouse-core/internal/location"
	"github.com/nerrad567/smarthouse-core/internal/report"
)

// handleListHouses returns the ids of all houses.
func (s *Server) handleListHouses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()

	houses, err := s.locations.ListHouses(ctx)
	if err != nil {
		s.writeError(w, r, entityHouse, "", err)
		return
	}
	ids, err := report.IDList(houses)
	if err != nil {
		s.writeError(w, r, entityHouse, "", err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) handleGetHouse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()

	house, err := s.locations.GetHouse(ctx, id)
	if err != nil {
		s.writeError(w, r, entityHouse, id, err)
		return
	}
	writeJSON(w, http.StatusOK, house)
}

// handleListHouseRooms returns a name to id map of the rooms in a house.
func (s *Server) handleListHouseRooms(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()

	rooms, err := s.locations.ListRoomsByHouse(ctx, id)
	if err != nil {
		s.writeError(w, r, entityHouse, id, err)
		return
	}
	index, err := report.NameIndex(rooms)
	if err != nil {
		s.writeError(w, r, entityHouse, id, err)
		return
	}
	writeJSON(w, http.StatusOK, index)
}

// handleRemoveHouse deletes a house without rooms and returns its prior value.
func (s *Server) handleRemoveHouse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()

	house, err := s.locations.DeleteHouse(ctx, id)
	if err != nil {
		s.writeError(w, r, entityHouse, id, err)
		return
	}
	s.emit(EventHouseRemoved, house)
	writeJSON(w, http.StatusOK, house)
}

func (s *Server) handleCreateHouse(w http.ResponseWriter, r *http.Request) {
	var nh location.NewHouse
	if err := json.NewDecoder(r.Body).Decode(&nh); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()

	house, err := s.locations.CreateHouse(ctx, nh)
	if err != nil {
		s.writeError(w, r, entityHouse, "", err)
		return
	}
	s.emit(EventHouseCreated, house)
	writeJSON(w, http.StatusCreated, house)
}
