package source

import (
	"errors"
	"fmt"
)

// Sentinel kinds for source catalog errors.
var (
	ErrConnectivity = errors.New("source unreachable")
	ErrStatus       = errors.New("source returned unexpected status")
	ErrDecode       = errors.New("source payload malformed")
)

// ConnectivityError is a transport-level failure talking to the catalog.
type ConnectivityError struct {
	URL string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("request failed %s: %v", e.URL, e.Err)
}

// Unwrap exposes both the sentinel and the transport error.
func (e *ConnectivityError) Unwrap() []error { return []error{ErrConnectivity, e.Err} }

// StatusError is a non-200 reply from the catalog.
type StatusError struct {
	URL    string
	Code   int
	Reason string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s %d %s %s", e.URL, e.Code, e.Reason, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }
