// Package recfile implements fixed-size-record files addressed directly by
// numeric identifier.
//
// A record file is a flat array on disk: the record for identifier i lives at
// byte offset i*recordSize. Files grow by extension as larger identifiers
// arrive and are never rewritten in place, so a torn write is contained to
// the single record it addressed.
//
// The first byte of every occupied record must be nonzero: callers reserve it
// as a flags byte with at least a present bit set. An all-zero slot (a file
// hole) or a slot beyond the end of the file reads as absent, which makes
// absence distinguishable from an empty value.
package recfile
