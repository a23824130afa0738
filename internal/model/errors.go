package model

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by all pipeline stages.
//
// Defects with an explicit repair policy (fill, clamp, drop, synthesize) are
// handled inside the cleaner and surface only as counters. Everything else is
// fatal: the pipeline fails loudly rather than producing silently wrong
// metrics.
var (
	// ErrPrecondition signals a stage invoked before its required inputs
	// exist (e.g. aggregation over tables that never went through cleaning).
	ErrPrecondition = errors.New("stage precondition not met")

	// ErrDataAbsent signals that a required dataset was never loaded.
	ErrDataAbsent = errors.New("required dataset absent")
)

// MalformedRecordError reports a field value that cannot be coerced to its
// required type, such as an unparseable sale date.
type MalformedRecordError struct {
	Table string
	ID    int
	Field string
	Value string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s id=%d: field %q: malformed value %q: %v", e.Table, e.ID, e.Field, e.Value, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }
