package destination

import (
	"errors"
	"fmt"
)

// Sentinel kinds for destination errors.
var (
	ErrAuthentication = errors.New("destination authentication failed")
	ErrOperation      = errors.New("destination operation failed")
	ErrUnexpectedType = errors.New("destination reply has unexpected type")
)

// OpError describes a failed search or create. It matches ErrOperation.
type OpError struct {
	Op    string
	Model string
	Name  string
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s %q: %v", e.Model, e.Op, e.Name, e.Err)
}

// Unwrap exposes both the sentinel and the underlying RPC error.
func (e *OpError) Unwrap() []error { return []error{ErrOperation, e.Err} }
