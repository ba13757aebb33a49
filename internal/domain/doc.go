// Package domain contains the core entities and value objects of the
// dump-to-git conversion pipeline.
//
// This package is the innermost layer. It has no dependencies on parsing,
// storage or protocol concerns and contains only the records the rest of the
// pipeline passes around.
//
// # Entities
//
//   - [Page]: a titled, namespaced container for an ordered revision history
//   - [Revision]: one historical version of a page, with author, timestamp,
//     comment and content
//   - [Author]: the identity behind a revision: a registered user, an
//     anonymous editor addressed by IP literal, or a deleted contributor
//   - [Progress]: the durable resume state deciding which input parts a
//     restarted run may skip
//
// # Error values
//
//   - [SkipError]: a single malformed revision that was skipped (recoverable)
//   - [ChainError]: a page whose revision chain could not be fully linked
//     (structural; the page's history is reported incomplete)
package domain
