package device

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"pgregory.net/rapid"

	"github.com/nerrad567/smarthouse-core/internal/infrastructure/database"
	_ "github.com/nerrad567/smarthouse-core/migrations"
)

// setupTestDB creates a migrated SQLite database in a temp directory.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:         filepath.Join(t.TempDir(), "device.db"),
		WALMode:      true,
		BusyTimeout:  5,
		MaxOpenConns: 2,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db.DB
}

// seedRoom inserts a house and a room and returns the room ID.
func seedRoom(t *testing.T, db *sql.DB, name string) string {
	t.Helper()

	houseID, roomID := uuid.New().String(), uuid.New().String()
	if _, err := db.Exec(`INSERT INTO houses (id, name) VALUES (?, ?)`, houseID, "Home"); err != nil {
		t.Fatalf("seeding house: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO rooms (id, name, house) VALUES (?, ?, ?)`, roomID, name, houseID); err != nil {
		t.Fatalf("seeding room: %v", err)
	}
	return roomID
}

func strPtr(s string) *string { return &s }

func mustCreate(t *testing.T, repo *SQLiteRepository, nd NewDevice) *Device {
	t.Helper()

	d, err := repo.Create(context.Background(), nd)
	if err != nil {
		t.Fatalf("Create(%+v): %v", nd, err)
	}
	return d
}

func TestCreate_Defaults(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	roomID := seedRoom(t, db, "Kitchen")

	d := mustCreate(t, repo, NewDevice{Name: "Lamp", Typ: "Socket", Address: strPtr("192.168.0.1"), Room: roomID})

	if _, err := uuid.Parse(d.ID); err != nil {
		t.Errorf("generated id %q is not a UUID", d.ID)
	}
	if d.State {
		t.Error("new device state should be false")
	}
	if d.Variable != 0 {
		t.Errorf("new device variable = %d, want 0", d.Variable)
	}
	if d.Type != "Socket" {
		t.Errorf("Type = %q, want Socket", d.Type)
	}
}

func TestCreate_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	roomID := seedRoom(t, db, "Kitchen")
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		nd := NewDevice{
			Name: rapid.StringMatching(`[A-Za-z0-9][A-Za-z0-9 ]{0,30}`).Draw(rt, "name"),
			Typ:  rapid.SampledFrom([]string{"Socket", "Thermometer", "Lamp"}).Draw(rt, "type"),
			Room: roomID,
		}
		if rapid.Bool().Draw(rt, "hasAddress") {
			nd.Address = strPtr(rapid.StringMatching(`[0-9]{1,3}(\.[0-9]{1,3}){3}`).Draw(rt, "address"))
		}

		created, err := repo.Create(ctx, nd)
		if err != nil {
			rt.Fatalf("Create: %v", err)
		}
		got, err := repo.GetByID(ctx, created.ID)
		if err != nil {
			rt.Fatalf("GetByID: %v", err)
		}

		if got.ID != created.ID || got.Name != created.Name || got.Type != created.Type ||
			got.Room != created.Room || got.State != created.State || got.Variable != created.Variable {
			rt.Fatalf("GetByID = %+v, want %+v", got, created)
		}
		if (got.Address == nil) != (created.Address == nil) {
			rt.Fatalf("address presence mismatch: got %v, want %v", got.Address, created.Address)
		}
		if got.Address != nil && *got.Address != *created.Address {
			rt.Fatalf("address = %q, want %q", *got.Address, *created.Address)
		}
	})
}

func TestCreate_MissingRoom(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.Create(context.Background(), NewDevice{Name: "Lamp", Typ: "Socket", Room: uuid.New().String()})
	if err == nil {
		t.Fatal("Create under a missing room should fail")
	}
	if !database.IsForeignKeyViolation(err) {
		t.Errorf("expected a foreign key violation, got %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	long := make([]byte, maxAddressLength+1)
	for i := range long {
		long[i] = '1'
	}

	tests := []struct {
		name    string
		nd      NewDevice
		wantErr error
	}{
		{name: "empty name", nd: NewDevice{Typ: "Socket", Room: "r"}, wantErr: ErrInvalidName},
		{name: "missing type", nd: NewDevice{Name: "Lamp", Room: "r"}, wantErr: ErrInvalidDevice},
		{name: "missing room", nd: NewDevice{Name: "Lamp", Typ: "Socket"}, wantErr: ErrInvalidDevice},
		{name: "address too long", nd: NewDevice{Name: "Lamp", Typ: "Socket", Room: "r", Address: strPtr(string(long))}, wantErr: ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Create(context.Background(), tt.nd)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), uuid.New().String())
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByID error = %v, want ErrDeviceNotFound", err)
	}
}

func TestListByRoom(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	kitchen := seedRoom(t, db, "Kitchen")
	hall := seedRoom(t, db, "Hall")
	mustCreate(t, repo, NewDevice{Name: "Lamp", Typ: "Socket", Room: kitchen})
	mustCreate(t, repo, NewDevice{Name: "Kettle", Typ: "Socket", Room: kitchen})
	mustCreate(t, repo, NewDevice{Name: "Thermo", Typ: "Thermometer", Room: hall})

	tests := []struct {
		name   string
		roomID string
		want   int
	}{
		{name: "kitchen", roomID: kitchen, want: 2},
		{name: "hall", roomID: hall, want: 1},
		{name: "unknown room", roomID: uuid.New().String(), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devices, err := repo.ListByRoom(ctx, tt.roomID)
			if err != nil {
				t.Fatalf("ListByRoom: %v", err)
			}
			if len(devices) != tt.want {
				t.Errorf("ListByRoom returned %d devices, want %d", len(devices), tt.want)
			}
			for _, d := range devices {
				if d.Room != tt.roomID {
					t.Errorf("device %s in room %s, want %s", d.ID, d.Room, tt.roomID)
				}
			}
		})
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List returned %d devices, want 3", len(all))
	}
	if all[0].Name != "Kettle" {
		t.Errorf("List not ordered by name: first is %q", all[0].Name)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	d := mustCreate(t, repo, NewDevice{Name: "Lamp", Typ: "Socket", Room: seedRoom(t, db, "Kitchen")})
	other := mustCreate(t, repo, NewDevice{Name: "Kettle", Typ: "Socket", Room: d.Room})

	prior, err := repo.Delete(ctx, d.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if prior.ID != d.ID || prior.Name != d.Name {
		t.Errorf("Delete returned %+v, want prior value %+v", prior, d)
	}

	if _, err := repo.GetByID(ctx, d.ID); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrDeviceNotFound", err)
	}
	if _, err := repo.GetByID(ctx, other.ID); err != nil {
		t.Errorf("unrelated device removed: %v", err)
	}
	if _, err := repo.Delete(ctx, d.ID); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("second Delete error = %v, want ErrDeviceNotFound", err)
	}
}

func TestToggleState(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	d := mustCreate(t, repo, NewDevice{Name: "Lamp", Typ: "Socket", Room: seedRoom(t, db, "Kitchen")})

	on, err := repo.ToggleState(ctx, d.ID)
	if err != nil {
		t.Fatalf("ToggleState: %v", err)
	}
	if !on.State {
		t.Error("first toggle should switch the device on")
	}

	stored, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.State != on.State || stored.ID != on.ID {
		t.Errorf("stored device %+v differs from toggle result %+v", stored, on)
	}

	if _, err := repo.ToggleState(ctx, uuid.New().String()); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("ToggleState on missing device error = %v, want ErrDeviceNotFound", err)
	}
}

func TestToggleState_NotChanged(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	d := mustCreate(t, repo, NewDevice{Name: "Lamp", Typ: "Socket", Room: seedRoom(t, db, "Kitchen")})
	if _, err := db.Exec(`CREATE TRIGGER freeze_state BEFORE UPDATE OF state ON devices BEGIN SELECT RAISE(IGNORE); END`); err != nil {
		t.Fatalf("creating trigger: %v", err)
	}

	if _, err := repo.ToggleState(ctx, d.ID); !errors.Is(err, ErrStateNotChanged) {
		t.Fatalf("ToggleState error = %v, want ErrStateNotChanged", err)
	}

	stored, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.State {
		t.Error("state changed despite the failed toggle")
	}
}

func TestDelete_NotVerified(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	d := mustCreate(t, repo, NewDevice{Name: "Lamp", Typ: "Socket", Room: seedRoom(t, db, "Kitchen")})
	if _, err := db.Exec(`CREATE TRIGGER keep_devices BEFORE DELETE ON devices BEGIN SELECT RAISE(IGNORE); END`); err != nil {
		t.Fatalf("creating trigger: %v", err)
	}

	if _, err := repo.Delete(ctx, d.ID); !errors.Is(err, database.ErrDeleteNotVerified) {
		t.Fatalf("Delete error = %v, want ErrDeleteNotVerified", err)
	}
	if _, err := repo.GetByID(ctx, d.ID); err != nil {
		t.Errorf("device missing after unverified delete: %v", err)
	}
}

// Toggling n times leaves the state equal to the parity of n, so two toggles
// restore the original state and one strictly flips it.
func TestToggleState_Parity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	roomID := seedRoom(t, db, "Kitchen")
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		d, err := repo.Create(ctx, NewDevice{Name: "Lamp", Typ: "Socket", Room: roomID})
		if err != nil {
			rt.Fatalf("Create: %v", err)
		}

		toggles := rapid.IntRange(0, 6).Draw(rt, "toggles")
		prev := d.State
		for i := range toggles {
			got, err := repo.ToggleState(ctx, d.ID)
			if err != nil {
				rt.Fatalf("toggle %d: %v", i, err)
			}
			if got.State == prev {
				rt.Fatalf("toggle %d did not flip the state", i)
			}
			prev = got.State
		}

		final, err := repo.GetByID(ctx, d.ID)
		if err != nil {
			rt.Fatalf("GetByID: %v", err)
		}
		if want := toggles%2 == 1; final.State != want {
			rt.Fatalf("after %d toggles state = %t, want %t", toggles, final.State, want)
		}
	})
}

func TestScanDevice_NullAddress(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	d := mustCreate(t, repo, NewDevice{Name: "Thermo", Typ: "Thermometer", Room: seedRoom(t, db, "Hall")})

	got, err := repo.GetByID(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Address != nil {
		t.Errorf("Address = %q, want nil", *got.Address)
	}
}
