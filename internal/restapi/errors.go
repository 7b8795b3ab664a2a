package restapi

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped from backend response codes.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
)

// ValidationError carries the backend's detail text for a rejected
// request so it can be surfaced to the operator verbatim.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return "request rejected by backend"
	}
	return e.Detail
}

// NetworkError wraps a transport failure: the request never produced a
// response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: no response from backend: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
