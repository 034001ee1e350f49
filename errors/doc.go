/*
Package errors provides semantic error types for the querysets library.

Querysets report data-level outcomes through their status vocabulary, so a
missing record is never an error at the queryset surface. Errors are reserved
for faults the caller has to tell apart:

	var (
	    ErrNotFound           = errors.New("entity not found")
	    ErrInvalidInput       = errors.New("invalid input")
	    ErrBackendUnavailable = errors.New("backend unavailable")
	    ErrTranslation        = errors.New("document translation failed")
	    ErrNoSchema           = errors.New("no schema registered")
	)

Usage:

	res, err := qs.ReadOne(ctx, "123")
	if err != nil {
	    if errors.IsBackendUnavailable(err) {
	        // store unreachable: retry-worthy
	    }
	    return err
	}
	if res.Status == queryset.StatusFailed {
	    // terminal absence
	}

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
*/
package errors
