package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrValidation marks caller input that violates a domain rule.
	ErrValidation error = &refined{msg: "validation error", parent: ErrInvalidArgument}
	// ErrConflict marks a lost race: lock timeout, stale version or unique violation.
	ErrConflict = errors.New("conflict")
	// ErrExtraction marks documents that cannot be scanned for text.
	ErrExtraction = errors.New("extraction error")
	// ErrGeneration marks unusable language model output.
	ErrGeneration = errors.New("generation error")
	// ErrCollaboratorUnavailable marks an external dependency that timed out or is not configured.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)

// refined is a sentinel that also matches its parent under errors.Is.
type refined struct {
	msg    string
	parent error
}

func (e *refined) Error() string { return e.msg }
func (e *refined) Unwrap() error { return e.parent }
