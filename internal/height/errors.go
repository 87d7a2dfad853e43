package height

import "errors"

var (
	// ErrFetch is returned when a source cannot be reached or answers with a
	// non-2xx status.
	ErrFetch = errors.New("fetch failed")

	// ErrParse is returned when a body or captured text is not a base-10
	// unsigned 32-bit integer.
	ErrParse = errors.New("not a valid block height")

	// ErrNoMetric is returned when a pattern does not match the body.
	ErrNoMetric = errors.New("specified metric was not found")

	// ErrIncorrectRegex is returned when a pattern does not compile or does
	// not have exactly one capture group.
	ErrIncorrectRegex = errors.New("pattern must have exactly one capture group")
)
