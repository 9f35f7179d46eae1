package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput indicates that the provided input data is invalid.
	ErrInvalidInput = errors.New("invalid input data")
	// ErrUnknownSpecification indicates an answer for a specification the selected item does not have.
	ErrUnknownSpecification = errors.New("specification does not belong to the selected item")
	// ErrStepUnavailable indicates a navigation to a step whose upstream selections are missing.
	ErrStepUnavailable = errors.New("step is not reachable yet")
	// ErrRevisionConflict indicates that the draft was saved by another writer since it was read.
	ErrRevisionConflict = errors.New("draft was modified concurrently")
	// ErrDraftNotFound indicates that no draft is stored under the key.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrUnauthenticated indicates the user must log in before submitting.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrCatalogUnavailable indicates a catalog collaborator request failed.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrSubmissionFailed indicates the listing endpoint rejected or never received the listing.
	ErrSubmissionFailed = errors.New("listing submission failed")
)

// ValidationError lists what is still missing from a draft.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// CollaboratorError carries the status and server-provided message of a
// failed collaborator call. Status 0 means the request never got a response.
type CollaboratorError struct {
	Status  int
	Message string
}

func (e *CollaboratorError) Error() string {
	if e.Status == 0 {
		return "collaborator unreachable: " + e.Message
	}
	return fmt.Sprintf("collaborator returned %d: %s", e.Status, e.Message)
}
