package inlineedit

import "errors"

var (
	// ErrLoading is returned when a field is activated before its record
	// has loaded.
	ErrLoading = errors.New("inlineedit: record still loading")

	// ErrNotEditing is returned when an editor operation targets a field
	// that is not in the form state.
	ErrNotEditing = errors.New("inlineedit: field is not being edited")

	// ErrCommitPending is returned while a commit is in flight.
	ErrCommitPending = errors.New("inlineedit: commit in progress")

	ErrUnknownField = errors.New("inlineedit: unknown field")
	ErrInvalidValue = errors.New("inlineedit: invalid value")
)
