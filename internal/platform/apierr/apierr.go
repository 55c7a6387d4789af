package apierr

import (
	"errors"
	"fmt"
	"net/http"

	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// UnavailableMessage replaces collaborator error detail in responses.
const UnavailableMessage = "a required service is temporarily unavailable, please try again"

// FromError classifies a service error into an HTTP status and code.
// Errors that are already *Error pass through unchanged.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, domainerrs.ErrValidation), errors.Is(err, domainerrs.ErrInvalidArgument):
		return New(http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, domainerrs.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, domainerrs.ErrConflict):
		return New(http.StatusConflict, "conflict", err)
	case errors.Is(err, domainerrs.ErrExtraction):
		return New(http.StatusUnprocessableEntity, "extraction_error", err)
	case errors.Is(err, domainerrs.ErrGeneration):
		return New(http.StatusBadGateway, "generation_error", err)
	case errors.Is(err, domainerrs.ErrCollaboratorUnavailable):
		return New(http.StatusServiceUnavailable, "collaborator_unavailable", errors.New(UnavailableMessage))
	case errors.Is(err, domainerrs.ErrUnauthorized):
		return New(http.StatusUnauthorized, "unauthorized", err)
	default:
		return New(http.StatusInternalServerError, "internal_error", err)
	}
}
