package dataapi

import (
	"errors"
	"fmt"
)

// ErrorKind identifies why a connection could not be established.
type ErrorKind int

const (
	// KindConnection is the generic fallback for unrecognized failures.
	KindConnection ErrorKind = iota
	KindConnectionRefused
	KindAccessDenied
	KindHostNotFound
	KindHostNotReachable
	KindInvalidConnection
)

var (
	ErrConnection        = errors.New("connection error")
	ErrConnectionRefused = errors.New("connection refused")
	ErrAccessDenied      = errors.New("access denied")
	ErrHostNotFound      = errors.New("host not found")
	ErrHostNotReachable  = errors.New("host not reachable")
	ErrInvalidConnection = errors.New("invalid connection")
)

var kindSentinels = map[ErrorKind]error{
	KindConnection:        ErrConnection,
	KindConnectionRefused: ErrConnectionRefused,
	KindAccessDenied:      ErrAccessDenied,
	KindHostNotFound:      ErrHostNotFound,
	KindHostNotReachable:  ErrHostNotReachable,
	KindInvalidConnection: ErrInvalidConnection,
}

func (k ErrorKind) String() string {
	switch k {
	case KindConnectionRefused:
		return "ConnectionRefused"
	case KindAccessDenied:
		return "AccessDenied"
	case KindHostNotFound:
		return "HostNotFound"
	case KindHostNotReachable:
		return "HostNotReachable"
	case KindInvalidConnection:
		return "InvalidConnection"
	default:
		return "ConnectionError"
	}
}

// ConnectionError is returned by Manager.Connect when the probe fails.
// It wraps the raw transport error, which stays reachable through errors.As.
type ConnectionError struct {
	Kind ErrorKind
	// Code is the raw code the classification was based on, if any.
	Code string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %v", kindSentinels[e.Kind], e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e.Kind. Every kind also matches ErrConnection.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection || target == kindSentinels[e.Kind]
}

// IsConnectionError reports whether err carries a ConnectionError.
func IsConnectionError(err error) bool {
	var target *ConnectionError
	return errors.As(err, &target)
}
