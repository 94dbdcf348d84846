package models

import "time"

// CacheEntry is the persisted record keyed by absolute path in the hash
// cache (see package cache).
//
// A present QuickHash with an empty FullHash is legitimate and means "this
// file was quick-hashed but has not been fully hashed yet". Small files are
// stored with QuickHash and FullHash set to the same digest — see the
// small-file promotion rule in package dedupe.
type CacheEntry struct {
	Path        string
	Size        int64
	ModTime     float64 // seconds since epoch, fractional — matches the on-disk REAL column
	QuickHash   string
	FullHash    string // empty means "not yet computed"
	LastChecked time.Time
}

// Stale reports whether the entry's LastChecked is older than maxAge
// relative to now.
func (e CacheEntry) Stale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(e.LastChecked) > maxAge
}
