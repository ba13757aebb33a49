// Package ports defines the interfaces (ports) that connect the conversion
// pipeline to its infrastructure.
//
// Ports are the boundaries between the pipeline core and the outside world:
// they state what the pipeline needs without fixing how the need is met.
//
// # Port Interfaces
//
//   - [RevisionReader]: yields the revisions of one dump part in input order
//   - [ProgressStore]: persists and loads resume state between invocations
//
// # Usage
//
// The pipeline (internal/app) depends on these interfaces. pkg/mwdump and
// internal/progress provide the production implementations; tests substitute
// in-memory fakes.
package ports
