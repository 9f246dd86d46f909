// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrNoEvents is returned when filtering leaves nothing to export.
	ErrNoEvents = errors.New("No events to export after filtering")
	// ErrNotTimeline means the document lacks the timeline export marker.
	ErrNotTimeline = errors.New("not a timeline export document")
	// ErrInvalidDocument means the document is not valid JSON.
	ErrInvalidDocument = errors.New("invalid canvas document")
	// ErrInvalidOptions wraps option validation failures.
	ErrInvalidOptions = errors.New("invalid export options")
)
