package location

import "errors"

var (
	// ErrHouseNotFound is returned when a house ID does not exist.
	ErrHouseNotFound = errors.New("location: house not found")

	// ErrRoomNotFound is returned when a room ID does not exist.
	ErrRoomNotFound = errors.New("location: room not found")

	// ErrInvalidName is returned when a house or room name fails validation.
	ErrInvalidName = errors.New("location: invalid name")

	// ErrInvalidParent is returned when a create request names no parent.
	ErrInvalidParent = errors.New("location: invalid parent reference")
)
