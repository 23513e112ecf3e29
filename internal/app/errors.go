package service

import "errors"

// Reasons attached to skipped outcomes.
var (
	ErrPlanetUnavailable = errors.New("homeworld could not be stored")
	ErrHomeworldMissing  = errors.New("homeworld not in catalog")
)
