package location

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerrad567/smarthouse-core/internal/infrastructure/database"
)

// Table names used with the row-count helpers.
const (
	housesTable = "houses"
	roomsTable  = "rooms"
)

// Repository defines the interface for location persistence operations.
type Repository interface {
	GetHouse(ctx context.Context, id string) (*House, error)
	ListHouses(ctx context.Context) ([]House, error)
	CreateHouse(ctx context.Context, h NewHouse) (*House, error)
	DeleteHouse(ctx context.Context, id string) (*House, error)
	CountHouses(ctx context.Context) (int64, error)

	GetRoom(ctx context.Context, id string) (*Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	ListRoomsByHouse(ctx context.Context, houseID string) ([]Room, error)
	CreateRoom(ctx context.Context, r NewRoom) (*Room, error)
	DeleteRoom(ctx context.Context, id string) (*Room, error)
	CountRooms(ctx context.Context) (int64, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed location repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ─── Houses ─────────────────────────────────────────────────────────

// GetHouse returns a single house by ID.
func (r *SQLiteRepository) GetHouse(ctx context.Context, id string) (*House, error) {
	return getHouse(ctx, r.db, id)
}

func getHouse(ctx context.Context, q queryRower, id string) (*House, error) {
	var h House
	err := q.QueryRowContext(ctx, `SELECT id, name FROM houses WHERE id = ?`, id).Scan(&h.ID, &h.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHouseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying house %s: %w", id, err)
	}
	return &h, nil
}

// ListHouses returns all houses ordered by name.
func (r *SQLiteRepository) ListHouses(ctx context.Context) ([]House, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM houses ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying houses: %w", err)
	}
	defer rows.Close()

	var houses []House
	for rows.Next() {
		var h House
		if err := rows.Scan(&h.ID, &h.Name); err != nil {
			return nil, fmt.Errorf("scanning house row: %w", err)
		}
		houses = append(houses, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating house rows: %w", err)
	}
	return houses, nil
}

// CreateHouse inserts a new house with a generated ID.
func (r *SQLiteRepository) CreateHouse(ctx context.Context, nh NewHouse) (*House, error) {
	if err := ValidateNewHouse(nh); err != nil {
		return nil, err
	}

	h := &House{ID: uuid.New().String(), Name: nh.Name}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO houses (id, name) VALUES (?, ?)`, h.ID, h.Name); err != nil {
		return nil, fmt.Errorf("inserting house %s: %w", h.ID, err)
	}
	return h, nil
}

// DeleteHouse removes a house and returns its prior value. A house that
// still has rooms is rejected by the foreign key.
func (r *SQLiteRepository) DeleteHouse(ctx context.Context, id string) (*House, error) {
	var prior *House
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		h, err := getHouse(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := database.DeleteVerified(ctx, tx, housesTable, id); err != nil {
			return fmt.Errorf("deleting house %s: %w", id, err)
		}
		prior = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prior, nil
}

// CountHouses returns the number of houses.
func (r *SQLiteRepository) CountHouses(ctx context.Context) (int64, error) {
	return database.CountRows(ctx, r.db, housesTable)
}

// ─── Rooms ──────────────────────────────────────────────────────────

// GetRoom returns a single room by ID.
func (r *SQLiteRepository) GetRoom(ctx context.Context, id string) (*Room, error) {
	return getRoom(ctx, r.db, id)
}

func getRoom(ctx context.Context, q queryRower, id string) (*Room, error) {
	var rm Room
	err := q.QueryRowContext(ctx, `SELECT id, name, house FROM rooms WHERE id = ?`, id).
		Scan(&rm.ID, &rm.Name, &rm.House)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying room %s: %w", id, err)
	}
	return &rm, nil
}

// ListRooms returns all rooms ordered by name.
func (r *SQLiteRepository) ListRooms(ctx context.Context) ([]Room, error) {
	return r.queryRooms(ctx, `SELECT id, name, house FROM rooms ORDER BY name, id`)
}

// ListRoomsByHouse returns the rooms of one house. An unknown house yields
// an empty slice.
func (r *SQLiteRepository) ListRoomsByHouse(ctx context.Context, houseID string) ([]Room, error) {
	return r.queryRooms(ctx, `SELECT id, name, house FROM rooms WHERE house = ? ORDER BY name, id`, houseID)
}

func (r *SQLiteRepository) queryRooms(ctx context.Context, query string, args ...any) ([]Room, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var rm Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.House); err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		rooms = append(rooms, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating room rows: %w", err)
	}
	return rooms, nil
}

// CreateRoom inserts a new room under an existing house.
func (r *SQLiteRepository) CreateRoom(ctx context.Context, nr NewRoom) (*Room, error) {
	if err := ValidateNewRoom(nr); err != nil {
		return nil, err
	}

	rm := &Room{ID: uuid.New().String(), Name: nr.Name, House: nr.House}
	_, err := r.db.ExecContext(ctx, `INSERT INTO rooms (id, name, house) VALUES (?, ?, ?)`,
		rm.ID, rm.Name, rm.House)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("inserting room %s: house %s does not exist: %w", rm.ID, rm.House, err)
		}
		return nil, fmt.Errorf("inserting room %s: %w", rm.ID, err)
	}
	return rm, nil
}

// DeleteRoom removes a room and returns its prior value. A room that still
// has devices is rejected by the foreign key.
func (r *SQLiteRepository) DeleteRoom(ctx context.Context, id string) (*Room, error) {
	var prior *Room
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		rm, err := getRoom(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := database.DeleteVerified(ctx, tx, roomsTable, id); err != nil {
			return fmt.Errorf("deleting room %s: %w", id, err)
		}
		prior = rm
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prior, nil
}

// CountRooms returns the number of rooms.
func (r *SQLiteRepository) CountRooms(ctx context.Context) (int64, error) {
	return database.CountRows(ctx, r.db, roomsTable)
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
