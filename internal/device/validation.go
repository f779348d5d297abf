package device

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validation limits.
const (
	maxNameLength    = 100
	maxTypeLength    = 50
	maxAddressLength = 255
)

// ValidateName checks if a device name is valid.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateNewDevice checks a create request before it reaches the store.
// Whether the room exists is left to the foreign key.
func ValidateNewDevice(nd NewDevice) error {
	if err := ValidateName(nd.Name); err != nil {
		return err
	}

	typ := strings.TrimSpace(nd.Typ)
	if typ == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidDevice)
	}
	if utf8.RuneCountInString(typ) > maxTypeLength {
		return fmt.Errorf("%w: type exceeds %d characters", ErrInvalidDevice, maxTypeLength)
	}

	if nd.Address != nil && utf8.RuneCountInString(*nd.Address) > maxAddressLength {
		return fmt.Errorf("%w: address exceeds %d characters", ErrInvalidAddress, maxAddressLength)
	}

	if strings.TrimSpace(nd.Room) == "" {
		return fmt.Errorf("%w: room is required", ErrInvalidDevice)
	}
	return nil
}
