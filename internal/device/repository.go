package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerrad567/smarthouse-core/internal/infrastructure/database"
)

// devicesTable is used with the row-count helpers.
const devicesTable = "devices"

const selectColumns = `SELECT id, name, type, address, state, variable, room FROM devices`

// Repository defines the interface for device persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a device by its unique identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	// List retrieves all devices.
	List(ctx context.Context) ([]Device, error)

	// ListByRoom retrieves all devices in a specific room.
	ListByRoom(ctx context.Context, roomID string) ([]Device, error)

	// Create inserts a new device with a generated ID.
	Create(ctx context.Context, nd NewDevice) (*Device, error)

	// Delete removes a device and returns its prior value.
	Delete(ctx context.Context, id string) (*Device, error)

	// ToggleState flips the device's state and returns the updated device.
	ToggleState(ctx context.Context, id string) (*Device, error)

	// Count returns the number of devices.
	Count(ctx context.Context) (int64, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed device repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetByID retrieves a device by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	return getByID(ctx, r.db, id)
}

func getByID(ctx context.Context, q queryRower, id string) (*Device, error) {
	d, err := scanDevice(q.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying device %s: %w", id, err)
	}
	return d, nil
}

// List retrieves all devices ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	return r.queryDevices(ctx, selectColumns+` ORDER BY name, id`)
}

// ListByRoom retrieves the devices of one room. An unknown room yields an
// empty slice.
func (r *SQLiteRepository) ListByRoom(ctx context.Context, roomID string) ([]Device, error) {
	return r.queryDevices(ctx, selectColumns+` WHERE room = ? ORDER BY name, id`, roomID)
}

// Create inserts a new device. A room that does not exist is rejected by the
// foreign key and surfaces as a wrapped store error.
func (r *SQLiteRepository) Create(ctx context.Context, nd NewDevice) (*Device, error) {
	if err := ValidateNewDevice(nd); err != nil {
		return nil, err
	}

	d := &Device{
		ID:      uuid.New().String(),
		Name:    nd.Name,
		Type:    nd.Typ,
		Address: nd.Address,
		Room:    nd.Room,
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO devices (id, name, type, address, state, variable, room) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Type, nullableString(d.Address), boolToInt(d.State), d.Variable, d.Room,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("inserting device %s: room %s does not exist: %w", d.ID, d.Room, err)
		}
		return nil, fmt.Errorf("inserting device %s: %w", d.ID, err)
	}
	return d, nil
}

// Delete removes a device by ID and returns the value it had.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) (*Device, error) {
	var prior *Device
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		d, err := getByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := database.DeleteVerified(ctx, tx, devicesTable, id); err != nil {
			return fmt.Errorf("deleting device %s: %w", id, err)
		}
		prior = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prior, nil
}

// ToggleState negates the stored state and re-reads the device to confirm
// the write took effect.
func (r *SQLiteRepository) ToggleState(ctx context.Context, id string) (*Device, error) {
	var updated *Device
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		before, err := getByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE devices SET state = NOT state WHERE id = ?`, id); err != nil {
			return fmt.Errorf("toggling device %s: %w", id, err)
		}

		after, err := getByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if after.State == before.State {
			return fmt.Errorf("%w: device %s still %t", ErrStateNotChanged, id, after.State)
		}
		updated = after
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Count returns the number of devices.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	return database.CountRows(ctx, r.db, devicesTable)
}

// inTx runs fn in a transaction. Every statement inside fn must use tx.
func (r *SQLiteRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// queryDevices executes a query and returns a slice of Device.
func (r *SQLiteRepository) queryDevices(ctx context.Context, query string, args ...any) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device rows: %w", err)
	}
	return devices, nil
}

// scanDevice scans a row or rows result into a Device.
func scanDevice(scanner rowScanner) (*Device, error) {
	var d Device
	var address sql.NullString
	var state int

	if err := scanner.Scan(&d.ID, &d.Name, &d.Type, &address, &state, &d.Variable, &d.Room); err != nil {
		return nil, err
	}
	if address.Valid {
		d.Address = &address.String
	}
	d.State = state != 0
	return &d, nil
}

// nullableString converts a *string to sql.NullString.
func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// boolToInt converts a bool to an int (SQLite has no native bool type).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
