package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/smarthouse-core/internal/api"
	"github.com/nerrad567/smarthouse-core/internal/device"
	"github.com/nerrad567/smarthouse-core/internal/infrastructure/database"
	"github.com/nerrad567/smarthouse-core/internal/infrastructure/logging"
	"github.com/nerrad567/smarthouse-core/internal/location"
	_ "github.com/nerrad567/smarthouse-core/migrations"
	"github.com/nerrad567/smarthouse-core/pkg/client"
)

// newTestClient starts a real API server over a temp SQLite database.
func newTestClient(t *testing.T) *client.Client {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:         filepath.Join(t.TempDir(), "client.db"),
		WALMode:      true,
		BusyTimeout:  5,
		MaxOpenConns: 4,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating database: %v", err)
	}

	srv, err := api.New(api.Deps{
		Logger:    logging.Discard(),
		DB:        db,
		Locations: location.NewSQLiteRepository(db.DB),
		Devices:   device.NewSQLiteRepository(db.DB),
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return client.New(ts.URL+"/", client.WithTimeout(5*time.Second))
}

func TestClient_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	house, err := c.CreateHouse(ctx, client.NewHouse{Name: "Home"})
	if err != nil {
		t.Fatalf("CreateHouse: %v", err)
	}
	room, err := c.CreateRoom(ctx, client.NewRoom{Name: "Kitchen", House: house.ID})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	addr := "192.168.0.1"
	dev, err := c.CreateDevice(ctx, client.NewDevice{Name: "Lamp", Type: "Socket", Address: &addr, Room: room.ID})
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	if dev.Type != "Socket" || dev.Room != room.ID || dev.State {
		t.Errorf("created device = %+v", dev)
	}

	ids, err := c.DeviceIDs(ctx)
	if err != nil || len(ids) != 1 || ids[0] != dev.ID {
		t.Errorf("DeviceIDs = %q, %v", ids, err)
	}
	houses, err := c.HouseIDs(ctx)
	if err != nil || len(houses) != 1 || houses[0] != house.ID {
		t.Errorf("HouseIDs = %q, %v", houses, err)
	}
	roomsText, err := c.RoomIDs(ctx)
	if err != nil || !strings.Contains(roomsText, room.ID) {
		t.Errorf("RoomIDs = %q, %v", roomsText, err)
	}

	gotHouse, err := c.House(ctx, house.ID)
	if err != nil || *gotHouse != *house {
		t.Errorf("House = %+v, %v", gotHouse, err)
	}
	gotRoom, err := c.Room(ctx, room.ID)
	if err != nil || *gotRoom != *room {
		t.Errorf("Room = %+v, %v", gotRoom, err)
	}
	gotDev, err := c.Device(ctx, dev.ID)
	if err != nil || gotDev.Name != "Lamp" || gotDev.Address == nil || *gotDev.Address != addr {
		t.Errorf("Device = %+v, %v", gotDev, err)
	}

	index, err := c.HouseRooms(ctx, house.ID)
	if err != nil || index["Kitchen"] != room.ID {
		t.Errorf("HouseRooms = %v, %v", index, err)
	}
	roomDevices, err := c.RoomDevices(ctx, room.ID)
	if err != nil || len(roomDevices) != 1 || roomDevices[0] != dev.ID {
		t.Errorf("RoomDevices = %q, %v", roomDevices, err)
	}

	v, err := c.DeviceVariable(ctx, dev.ID)
	if err != nil || v != 0 {
		t.Errorf("DeviceVariable = %d, %v", v, err)
	}

	toggled, err := c.ToggleDevice(ctx, dev.ID)
	if err != nil || !toggled.State {
		t.Errorf("ToggleDevice = %+v, %v", toggled, err)
	}

	text, err := c.Report(ctx, house.ID)
	if err != nil || !strings.Contains(text, "Home") || !strings.Contains(text, "Lamp") {
		t.Errorf("Report = %q, %v", text, err)
	}

	if _, err := c.RemoveRoom(ctx, room.ID); err == nil {
		t.Error("RemoveRoom with devices should fail")
	}
	if _, err := c.RemoveDevice(ctx, dev.ID); err != nil {
		t.Errorf("RemoveDevice: %v", err)
	}
	if _, err := c.RemoveRoom(ctx, room.ID); err != nil {
		t.Errorf("RemoveRoom: %v", err)
	}
	if _, err := c.RemoveHouse(ctx, house.ID); err != nil {
		t.Errorf("RemoveHouse: %v", err)
	}

	if _, err := c.Device(ctx, dev.ID); !client.IsNotFound(err) {
		t.Errorf("Device after remove error = %v, want not found", err)
	}
}

func TestClient_NotFound(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	id := uuid.New().String()

	_, err := c.Device(ctx, id)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Body != "No device found with UID: "+id {
		t.Errorf("APIError = %+v", apiErr)
	}

	if _, err := c.House(ctx, "not-a-uuid"); !client.IsNotFound(err) {
		t.Errorf("malformed id error = %v, want not found", err)
	}
}

func TestClient_EmptyList(t *testing.T) {
	_, err := newTestClient(t).DeviceIDs(context.Background())

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("error = %v, want 400", err)
	}
	if client.IsNotFound(err) {
		t.Error("400 should not be reported as not found")
	}
}

func TestClient_InvalidCreate(t *testing.T) {
	_, err := newTestClient(t).CreateHouse(context.Background(), client.NewHouse{Name: "  "})

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("error = %v, want 400", err)
	}
}

func TestWithHTTPClient(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/device/abc/var" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("42")) //nolint:errcheck // Test server
	}))
	defer ts.Close()

	c := client.New(ts.URL, client.WithHTTPClient(ts.Client()))
	v, err := c.DeviceVariable(context.Background(), "abc")
	if err != nil || v != 42 {
		t.Errorf("DeviceVariable = %d, %v", v, err)
	}
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}

func TestWithTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	c := client.New(ts.URL, client.WithTimeout(50*time.Millisecond))
	if _, err := c.HouseIDs(context.Background()); err == nil {
		t.Error("expected timeout error")
	}
}

func TestWithTimeout_LeavesCallerClientUnchanged(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	tests := []struct {
		name string
		opts func(shared *http.Client) []client.Option
	}{
		{"timeout after client", func(shared *http.Client) []client.Option {
			return []client.Option{client.WithHTTPClient(shared), client.WithTimeout(50 * time.Millisecond)}
		}},
		{"timeout before client", func(shared *http.Client) []client.Option {
			return []client.Option{client.WithTimeout(50 * time.Millisecond), client.WithHTTPClient(shared)}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shared := &http.Client{Timeout: time.Hour}
			c := client.New(ts.URL, tt.opts(shared)...)

			if _, err := c.HouseIDs(context.Background()); err == nil {
				t.Error("expected timeout error")
			}
			if shared.Timeout != time.Hour {
				t.Errorf("shared client Timeout = %v, want 1h", shared.Timeout)
			}
		})
	}
}

func TestContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := client.New("http://127.0.0.1:1")
	if _, err := c.Report(ctx, uuid.New().String()); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
