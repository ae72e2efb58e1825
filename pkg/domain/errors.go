package domain

import "errors"

var (
	// ErrCorruptData marks persisted data that could not be decoded. Reads
	// degrade to an empty collection and wrap this error.
	ErrCorruptData = errors.New("rentapp: corrupt persisted data")
	// ErrQuotaExceeded is returned by storage drivers when a write would exceed
	// the configured storage budget.
	ErrQuotaExceeded = errors.New("rentapp: storage quota exceeded")
	// ErrInvalidProperty wraps validation failures on submitted properties.
	ErrInvalidProperty = errors.New("rentapp: invalid property")
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("rentapp: not found")
)
