package meeting

import (
	"errors"
	"net/http"

	"github.com/zhouzirui/z-meeting/internal/store"
)

// ErrorStatus maps a service error to an HTTP status.
func ErrorStatus(err error) int {
	var verr ValidationError
	switch {
	case errors.Is(err, store.ErrProfileNotFound), errors.Is(err, store.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.As(err, &verr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage returns the client-facing text of a service error.
func ErrorMessage(err error) string {
	var verr ValidationError
	switch {
	case errors.Is(err, store.ErrProfileNotFound):
		return "Profile not found"
	case errors.Is(err, store.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, ErrGeneration):
		return "Failed to generate response"
	case errors.As(err, &verr):
		return verr.Error()
	default:
		return "internal server error"
	}
}
