package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nerrad567/smarthouse-core/internal/device"
	"github.com/nerrad567/smarthouse-core/internal/report"
)

// handleHouseReport returns the device report of a house as a JSON string.
// A missing house, or a failure while collecting its rooms and devices,
// answers 404 with the underlying error. A busy store still answers 503.
func (s *Server) handleHouseReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()

	text, err := s.houseReport(ctx, id)
	if errors.Is(err, context.DeadlineExceeded) {
		s.writeError(w, r, entityHouse, id, err)
		return
	}
	if err != nil {
		s.logger.Debug("house report failed", "house_id", id, "error", err)
		writeText(w, http.StatusNotFound,
			fmt.Sprintf("No report found for house with UID: %s and error %s", id, err))
		return
	}
	writeJSON(w, http.StatusOK, text)
}

func (s *Server) houseReport(ctx context.Context, houseID string) (string, error) {
	house, err := s.locations.GetHouse(ctx, houseID)
	if err != nil {
		return "", err
	}
	rooms, err := s.locations.ListRoomsByHouse(ctx, houseID)
	if err != nil {
		return "", err
	}

	groups := make([][]device.Device, 0, len(rooms))
	for _, room := range rooms {
		devices, err := s.devices.ListByRoom(ctx, room.ID)
		if err != nil {
			return "", err
		}
		groups = append(groups, devices)
	}
	return report.HouseReport(*house, groups...)
}
