package calculator

import "errors"

var (
	// ErrInvalidInventory is returned when an inventory is empty, contains non-positive plates,
	// is not strictly descending, or shares its unit with the other inventory.
	ErrInvalidInventory = errors.New("inventory must contain strictly descending positive plates")
	// ErrTargetOutOfRange is returned when the target weight is infinite or too large to load.
	ErrTargetOutOfRange = errors.New("target weight is out of range")
)
