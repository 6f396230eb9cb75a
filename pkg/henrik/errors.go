package henrik

import (
	"errors"
	"fmt"

	"github.com/valyala/fasthttp"
)

type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindAuth
	KindNotFound
	KindRateLimited
	KindUnavailable
)

var ErrorKindStrings = map[ErrorKind]string{
	KindGeneric:     "generic",
	KindAuth:        "auth",
	KindNotFound:    "not_found",
	KindRateLimited: "rate_limited",
	KindUnavailable: "unavailable",
}

func (k ErrorKind) String() string {
	return ErrorKindStrings[k]
}

// StatusError is any non-200 answer from the API.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("henrik API error: %d", e.Code)
}

func (e *StatusError) Kind() ErrorKind {
	switch e.Code {
	case fasthttp.StatusUnauthorized, fasthttp.StatusForbidden:
		return KindAuth
	case fasthttp.StatusNotFound:
		return KindNotFound
	case fasthttp.StatusTooManyRequests:
		return KindRateLimited
	case fasthttp.StatusServiceUnavailable:
		return KindUnavailable
	default:
		return KindGeneric
	}
}

// KindOf classifies err, returning false for transport failures that never got a status.
func KindOf(err error) (ErrorKind, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Kind(), true
	}
	return KindGeneric, false
}
