package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/smarthouse-core/internal/device"
	"github.com/nerrad567/smarthouse-core/internal/report"
)

// handleListDevices returns the ids of all devices.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()

	devices, err := s.devices.List(ctx)
	if err != nil {
		s.writeError(w, r, entityDevice, "", err)
		return
	}
	ids, err := report.IDList(devices)
	if err != nil {
		s.writeError(w, r, entityDevice, "", err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// handleGetDevice returns one device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()

	d, err := s.devices.GetByID(ctx, id)
	if err != nil {
		s.writeError(w, r, entityDevice, id, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleGetDeviceVariable returns the device's variable as a JSON number.
func (s *Server) handleGetDeviceVariable(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()

	d, err := s.devices.GetByID(ctx, id)
	if err != nil {
		s.writeError(w, r, entityDevice, id, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Variable)
}

// handleToggleDevice flips the device's state and returns the updated device.
func (s *Server) handleToggleDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()

	d, err := s.devices.ToggleState(ctx, id)
	if err != nil {
		s.writeError(w, r, entityDevice, id, err)
		return
	}
	s.emitDevice(EventDeviceStateChanged, d)
	writeJSON(w, http.StatusOK, d)
}

// handleRemoveDevice deletes a device and returns its prior value.
func (s *Server) handleRemoveDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()

	d, err := s.devices.Delete(ctx, id)
	if err != nil {
		s.writeError(w, r, entityDevice, id, err)
		return
	}
	s.emitDevice(EventDeviceRemoved, d)
	writeJSON(w, http.StatusOK, d)
}

// handleCreateDevice inserts a device under an existing room.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var nd device.NewDevice
	if err := json.NewDecoder(r.Body).Decode(&nd); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()

	d, err := s.devices.Create(ctx, nd)
	if err != nil {
		s.writeError(w, r, entityDevice, "", err)
		return
	}
	s.emitDevice(EventDeviceCreated, d)
	writeJSON(w, http.StatusCreated, d)
}
