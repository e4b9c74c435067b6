package units

import "errors"

var (
	// ErrUnknownUnit is returned when a unit identifier is neither kilograms nor pounds.
	ErrUnknownUnit = errors.New("unknown weight unit")
	// ErrUnknownBarType is returned when a bar variant is not part of the catalog.
	ErrUnknownBarType = errors.New("unknown bar type")
	// ErrInvalidBar is returned when a bar catalog entry has a non-positive weight or an unknown unit.
	ErrInvalidBar = errors.New("bar catalog must contain positive weights in kg or lb")
)
