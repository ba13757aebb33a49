package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the conversion pipeline.
// These errors are returned by the public API and can be checked with
// errors.Is / errors.As.
var (
	// ErrLocked is returned when another pipeline instance holds the
	// working directory's advisory lock.
	ErrLocked = errors.New("levitation: working directory locked by another process")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("levitation: invalid configuration")

	// ErrBadDump is returned when the input is not a recognizable export
	// stream (wrong root element or XML namespace).
	ErrBadDump = errors.New("levitation: input is not a MediaWiki export stream")
)

// SkipError reports a single revision that could not be decoded and was
// skipped. The run continues; the pipeline counts skips and reports them in
// the final summary and the exit status.
type SkipError struct {
	// PageID is the owning page, 0 if unknown at the failure point.
	PageID uint32

	// RevisionID is the skipped revision, 0 if the failure occurred before
	// its id was read.
	RevisionID uint32

	// Err is the underlying decode failure.
	Err error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skipping revision %d of page %d: %v", e.RevisionID, e.PageID, e.Err)
}

func (e *SkipError) Unwrap() error { return e.Err }

// ChainError reports a page whose revision chain could not be fully linked:
// a parent pointer is absent from the page's group, the group has no first
// revision, or two revisions claim the same parent. History for the page is
// truncated at the fault and the remainder reported, never silently dropped.
type ChainError struct {
	// PageID is the affected page.
	PageID uint32

	// Orphans are the revision ids left out of the emitted chain.
	Orphans []uint32

	// Reason describes the structural fault.
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("page %d: incomplete history (%s): %d revision(s) not committed", e.PageID, e.Reason, len(e.Orphans))
}
