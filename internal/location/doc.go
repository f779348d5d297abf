// Package location provides the house and room hierarchy.
//
// Houses contain rooms, and rooms contain devices (see package device).
// Containment is enforced by foreign keys in the store, so a room cannot
// reference a missing house and a house cannot be removed while it still
// has rooms.
//
// The package provides a Repository interface with a SQLite implementation.
// Deletes are verified by comparing row counts inside the same transaction
// and fail with database.ErrDeleteNotVerified when nothing was removed.
//
// # Thread Safety
//
// SQLiteRepository is safe for concurrent use from multiple goroutines.
package location
