package core

import "errors"

// Error taxonomy for the loader. Both are wrapped with context, so test
// with errors.Is.
var (
	// ErrSourceUnavailable means the spreadsheet could not be fetched.
	// Fatal to the current load; the user should try again.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSourceTooLarge means the source exceeded the configured byte limit.
	// It also matches ErrSourceUnavailable.
	ErrSourceTooLarge error = sourceTooLarge{}

	// ErrSchema means the header row contained no recognized column.
	// This is a configuration problem, not a transient one.
	ErrSchema = errors.New("no recognizable columns")

	// ErrInvalidDate is returned by request parsing when a date filter
	// value cannot be read.
	ErrInvalidDate = errors.New("invalid date")
)

type sourceTooLarge struct{}

func (sourceTooLarge) Error() string { return "source too large" }

func (sourceTooLarge) Is(target error) bool { return target == ErrSourceUnavailable }
