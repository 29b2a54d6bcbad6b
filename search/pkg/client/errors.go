package client

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies why a search did not produce a Response.
type Kind string

const (
	// KindTransport covers DNS, connect, reset, timeout and cancellation.
	KindTransport Kind = "transport"
	// KindStatus is an HTTP status outside 2xx.
	KindStatus Kind = "status"
	// KindDecode is a 2xx reply whose body is not well-formed JSON or is too large.
	KindDecode Kind = "decode"
	// KindRejected means local policy refused to dispatch the request.
	KindRejected Kind = "rejected"
	// KindUnknown is reported for errors that are not *Error.
	KindUnknown Kind = "unknown"
)

// Sentinels matched by errors.Is against any *Error of the same Kind.
var (
	ErrTransport = errors.New("upstream unreachable")
	ErrStatus    = errors.New("upstream returned non-success status")
	ErrDecode    = errors.New("upstream returned malformed payload")
	ErrRejected  = errors.New("request rejected before dispatch")
)

// Error is the failure outcome of a search.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	// Body holds the (bounded) upstream body for status and decode failures.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("%s: %d", ErrStatus, e.StatusCode)
	case KindRejected:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", ErrRejected, e.Err)
		}
		return ErrRejected.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.sentinel(), e.Err)
	}
	return e.sentinel().Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

// Timeout reports whether a transport failure was caused by a deadline.
func (e *Error) Timeout() bool {
	if e.Kind != KindTransport {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindTransport:
		return ErrTransport
	case KindStatus:
		return ErrStatus
	case KindDecode:
		return ErrDecode
	case KindRejected:
		return ErrRejected
	}
	return nil
}

// Reject builds a KindRejected error for a request that was never sent.
func Reject(reason error) *Error {
	return &Error{Kind: KindRejected, Err: reason}
}

// KindOf returns the Kind of err, "" for nil and KindUnknown for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsTimeout reports whether err is a transport failure caused by a deadline.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Timeout()
}
