package query

import (
	"errors"
	"fmt"
)

// Sentinel errors for collaborator operations.
var (
	ErrFetch           = errors.New("query: fetch failed")
	ErrWrite           = errors.New("query: write failed")
	ErrNotFound        = errors.New("query: record not found")
	ErrInvalidField    = errors.New("query: invalid field name")
	ErrInvalidOperator = errors.New("query: invalid operator")
)

// FetchError reports a failed Query call.
type FetchError struct {
	Collection string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("query: fetch %s: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is makes every FetchError match ErrFetch.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// WriteError reports a failed Write, Insert or Delete call.
type WriteError struct {
	Collection string
	ID         string
	Err        error
}

func (e *WriteError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("query: insert %s: %v", e.Collection, e.Err)
	}
	return fmt.Sprintf("query: write %s/%s: %v", e.Collection, e.ID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Is makes every WriteError match ErrWrite.
func (e *WriteError) Is(target error) bool { return target == ErrWrite }

// IsFetchError checks if err came from a failed query.
func IsFetchError(err error) bool {
	return errors.Is(err, ErrFetch)
}

// IsWriteError checks if err came from a failed write or insert.
func IsWriteError(err error) bool {
	return errors.Is(err, ErrWrite)
}

// IsNotFound checks if err reports a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Reason returns the user-facing text of err: the innermost message
// without the collaborator's "query: ..." wrapping.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) && fe.Err != nil {
		return fe.Err.Error()
	}
	var we *WriteError
	if errors.As(err, &we) && we.Err != nil {
		return we.Err.Error()
	}
	return err.Error()
}
