package itinerary

import "errors"

var (
	ErrNotFound        = errors.New("itinerary not found")
	ErrVersionConflict = errors.New("itinerary was modified concurrently")
	ErrForbidden       = errors.New("itinerary belongs to another user")
	ErrSessionNotFound = errors.New("drag session not found or expired")
	ErrInvalidPosition = errors.New("day or stop index out of range")
)
