package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a domain failure carrying the HTTP status it maps to. Services
// raise these at the point of detection; the HTTP layer is the only place
// that translates them.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func NotFound(format string, args ...any) *Error {
	return &Error{Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Status: http.StatusForbidden, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Status: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

// StatusOf returns the HTTP status for an error, 500 for anything that is
// not a domain error.
func StatusOf(err error) int {
	var de *Error
	if errors.As(err, &de) {
		return de.Status
	}
	return http.StatusInternalServerError
}

// IsDomain reports whether err is a domain error.
func IsDomain(err error) bool {
	var de *Error
	return errors.As(err, &de)
}
