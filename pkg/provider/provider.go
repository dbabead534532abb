// Package provider holds what is common to all remote data sources: the transient/permanent error
// taxonomy and the bounded retry policy that wraps every fetch.
package provider

import (
	"errors"
	"fmt"
)

// PermanentError marks a fetch failure that will not succeed on retry, such as a 404 for a dated
// resource that will never appear. All other fetch failures are treated as transient.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps the given error so the retry policy fails immediately instead of retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ErrEmptyPage indicates a paginated source returned zero items before the declared last page. This is
// conservatively treated as a transient failure: it is retried, and exhaustion aborts the run.
var ErrEmptyPage = fmt.Errorf("page contains no items")
