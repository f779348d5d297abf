package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrInvalidDevice is returned when a create request is missing a field.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrInvalidName is returned when a device name is empty or too long.
	ErrInvalidName = errors.New("device: invalid name")

	// ErrInvalidAddress is returned when an address is too long.
	ErrInvalidAddress = errors.New("device: invalid address")

	// ErrStateNotChanged is returned when a toggle wrote the store but the
	// re-read state equals the state before the write.
	ErrStateNotChanged = errors.New("device: state not changed")
)
