// Package fastimport emits the line-oriented stream understood by
// git-fast-import compatible backends, and reads the mark tables such
// backends export.
//
// The package covers the subset of the protocol a dump converter needs:
// blobs, commits with a single parent and regular-file modifications,
// checkpoints, progress messages and the done terminator. Marks are chosen
// by the caller, which lets an importer keep its mark assignment stable
// across interrupted and resumed runs.
//
// # Usage
//
// Write a blob and a commit referencing it:
//
//	w := fastimport.NewWriter(out)
//	w.Feature("done", "")
//	w.Blob(1, "page text\n")
//	w.Commit(fastimport.Commit{
//	    Ref:       "refs/heads/master",
//	    Mark:      2,
//	    Author:    fastimport.Identity{Name: "Alice", Email: "alice@example.org", When: when},
//	    Committer: fastimport.Identity{Name: "Importer", Email: "importer@example.org", When: when},
//	    Message:   "edit summary",
//	    Files:     []fastimport.FileModify{{Path: "0/41/Alpha.mediawiki", BlobMark: 1}},
//	})
//	w.Done()
//	w.Flush()
//
// Load the table a backend wrote through its export-marks feature:
//
//	marks, err := fastimport.LoadMarks(".levitation/marks.git")
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package fastimport
