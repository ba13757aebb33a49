// Package progress persists the pipeline's resume state and enforces the
// single-writer discipline on the working directory.
//
// The progress file records which input parts are fully applied, so a
// re-invoked run skips their phase-one work entirely. It is written only
// after the backend has durably confirmed a part, and always via an atomic
// replace, so a crash at any point leaves either the old or the new state,
// never a torn file.
//
// The advisory lock serializes pipeline instances: the record files grow by
// in-place writes and tolerate no second writer.
package progress
