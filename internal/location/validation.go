package location

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxNameLength matches the device package limit.
const maxNameLength = 100

// ValidateName checks if a location name is valid.
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

// ValidateNewHouse validates a house create request.
func ValidateNewHouse(h NewHouse) error {
	return ValidateName(h.Name)
}

// ValidateNewRoom validates a room create request. The parent house is
// checked by the foreign key on insert.
func ValidateNewRoom(r NewRoom) error {
	if err := ValidateName(r.Name); err != nil {
		return err
	}
	if strings.TrimSpace(r.House) == "" {
		return fmt.Errorf("%w: house is required", ErrInvalidParent)
	}
	return nil
}
