// Package models defines the data structures shared across the scan and
// dedup pipeline.
package models

import "time"

// FileInfo is a transient record produced by the walker when a file passes
// the exclusion policy and any caller-supplied size bounds.
//
// size and mtime always come from the same stat observation; later pipeline
// stages never re-read them from disk.
type FileInfo struct {
	// Path is the absolute, native-separator path to the file.
	Path string
	// Name is the last path component.
	Name string
	// Size is the byte count observed at stat time.
	Size int64
	// ModTime is the last-modification timestamp from the same stat call.
	ModTime time.Time
	// ChangeTime is the creation or inode-change timestamp, same stat call.
	ChangeTime time.Time
	// Extension is the lowercased suffix including the leading dot, or "".
	Extension string

	// QuickHash and FullHash are set by the dedup pipeline; both are absent
	// ("") until a hashing stage has run on this entry.
	QuickHash string
	FullHash  string

	// GroupLabel is set by the type predicate (typefilter) to the category
	// an entry matched; empty for entries produced by the walker, the
	// duplicate pipeline, or the size predicate.
	GroupLabel string

	// Err is set by the duplicate pipeline (package dedupe) when hashing the
	// file fails after the walker accepted it. Entries with a non-nil Err are
	// treated as a per-file I/O skip and dropped from grouping.
	Err error
}

// DuplicateGroup is an ephemeral set of two or more FileInfo sharing a final
// (full) digest.
type DuplicateGroup struct {
	FullHash string
	Files    []FileInfo
}
