package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrPushFailed      = errors.New("metrics push failed")
	ErrTextfileFailed  = errors.New("metrics textfile write failed")
	ErrNoGatherableReg = errors.New("metrics registry cannot be gathered")
)
