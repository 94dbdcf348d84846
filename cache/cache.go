// Package cache persists file hashes keyed by (path, size, mtime) so that a
// repeat scan of an unchanged tree never re-reads file content. Backed by
// modernc.org/sqlite, a dependency the teacher project carried but never
// wired into any handler — this is its first real use.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"storagescan/models"
)

const fileName = "hash_cache.db"

const schema = `
CREATE TABLE IF NOT EXISTS file_cache (
	path         TEXT PRIMARY KEY,
	size         INTEGER NOT NULL,
	mtime        REAL NOT NULL,
	quick_hash   TEXT,
	full_hash    TEXT,
	last_checked REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_size_mtime ON file_cache(size, mtime);
CREATE INDEX IF NOT EXISTS idx_last_checked ON file_cache(last_checked);
`

// Store is a SQLite-backed hash cache. One Store owns one underlying
// connection (SetMaxOpenConns(1)) and serializes access with a mutex —
// modernc.org/sqlite's single-writer constraint makes a connection pool
// counterproductive here.
type Store struct {
	mu sync.Mutex
	db *sql.DB

	// tx is the in-flight batch transaction every Get/Put/cleanup statement
	// runs against. SetMaxOpenConns(1) means the database has exactly one
	// physical connection, so a second statement issued against s.db while
	// tx is open would block forever waiting for a connection tx is already
	// holding — every method therefore goes through tx, never s.db, except
	// while explicitly between transactions (see commitLocked/beginLocked).
	tx *sql.Tx

	// caseInsensitivePaths is probed once at Open and used to canonicalize
	// cache keys on filesystems (NTFS, APFS-default, FAT32) where "Foo.txt"
	// and "foo.txt" name the same file.
	caseInsensitivePaths bool
}

// Open creates or opens the cache database under dir (creating dir if
// needed) and ensures the schema exists.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	path := filepath.Join(dir, fileName)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init schema: %w", err)
	}

	s := &Store{db: db}
	if err := s.beginLocked(); err != nil {
		db.Close()
		return nil, err
	}
	s.caseInsensitivePaths = probeCaseInsensitive(dir)
	return s, nil
}

// Close commits any pending writes and releases the underlying database
// connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.commitLocked(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

// commitLocked commits the in-flight batch transaction, if any, leaving
// s.tx nil. Callers must hold s.mu.
func (s *Store) commitLocked() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("cache: commit: %w", err)
	}
	return nil
}

// beginLocked opens a fresh batch transaction. Callers must hold s.mu.
func (s *Store) beginLocked() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("cache: begin tx: %w", err)
	}
	s.tx = tx
	return nil
}

func (s *Store) key(path string) string {
	clean := filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(clean); err == nil {
		clean = resolved
	}
	if s.caseInsensitivePaths {
		return strings.ToLower(clean)
	}
	return clean
}

// Get returns the cached entry for path if one exists and its recorded size
// and mtime still match what's passed in — the caller is expected to have
// just stat'd the file. A mismatch (including "no entry") is reported as
// ok == false, never as an error: a cache miss is not exceptional.
func (s *Store) Get(path string, size int64, modTime time.Time) (models.CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.tx.QueryRow(
		`SELECT size, mtime, quick_hash, full_hash, last_checked FROM file_cache WHERE path = ?`,
		s.key(path),
	)

	var (
		dbSize    int64
		dbMtime   float64
		quickHash sql.NullString
		fullHash  sql.NullString
		checked   float64
	)
	if err := row.Scan(&dbSize, &dbMtime, &quickHash, &fullHash, &checked); err != nil {
		return models.CacheEntry{}, false
	}

	if dbSize != size || !mtimeMatches(dbMtime, modTime) {
		return models.CacheEntry{}, false
	}

	return models.CacheEntry{
		Path:        path,
		Size:        dbSize,
		ModTime:     dbMtime,
		QuickHash:   quickHash.String,
		FullHash:    fullHash.String,
		LastChecked: time.Unix(0, int64(checked*float64(time.Second))),
	}, true
}

// Put upserts an entry against the in-flight batch transaction. Writes are
// not committed until Flush — this mirrors the original cache's
// update_cache/flush split, which exists because committing once per file
// during a large scan dominates wall-clock time; a bare per-statement
// autocommit would reproduce exactly the slow path that split was meant to
// avoid.
func (s *Store) Put(path string, size int64, modTime time.Time, quickHash, fullHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.tx.Exec(
		`INSERT INTO file_cache (path, size, mtime, quick_hash, full_hash, last_checked)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mtime = excluded.mtime,
			quick_hash = excluded.quick_hash,
			full_hash = excluded.full_hash,
			last_checked = excluded.last_checked`,
		s.key(path), size, float64(modTime.UnixNano())/float64(time.Second),
		nullIfEmpty(quickHash), nullIfEmpty(fullHash), float64(time.Now().UnixNano())/float64(time.Second),
	)
	return err
}

// Flush commits every Put issued since the last Flush (or Open) in one
// transaction and opens a fresh transaction for subsequent writes. Batching
// commits this way, rather than autocommitting each Put, is the entire
// reason this cache beats re-hashing on a repeat scan; dedupe.FindDuplicates
// calls Flush once per run rather than once per file.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.commitLocked(); err != nil {
		return err
	}
	return s.beginLocked()
}

// Stats reports the entry count and on-disk size of the cache database.
type Stats struct {
	TotalEntries int64
	SizeBytes    int64
	Path         string
}

func (s *Store) Stats(dbPath string) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	if err := s.tx.QueryRow(`SELECT COUNT(*) FROM file_cache`).Scan(&total); err != nil {
		return Stats{}, err
	}

	var size int64
	if err := s.tx.QueryRow(
		`SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()`,
	).Scan(&size); err != nil {
		return Stats{}, err
	}

	return Stats{TotalEntries: total, SizeBytes: size, Path: dbPath}, nil
}

// ClearAll deletes every cache entry and compacts the database. VACUUM
// cannot run inside a transaction, so the pending batch is committed first
// and a fresh one opened afterward.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.tx.Exec(`DELETE FROM file_cache`); err != nil {
		return err
	}
	if err := s.commitLocked(); err != nil {
		return err
	}
	if _, err := s.db.Exec(`VACUUM`); err != nil {
		return err
	}
	return s.beginLocked()
}

// CleanupStale removes entries whose last_checked is older than maxAge and
// returns the number removed. The deletion is committed immediately since
// this runs off the maintenance ticker, independent of any caller's Flush.
func (s *Store) CleanupStale(maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := float64(time.Now().Add(-maxAge).UnixNano()) / float64(time.Second)
	res, err := s.tx.Exec(`DELETE FROM file_cache WHERE last_checked < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := s.commitLocked(); err != nil {
		return n, err
	}
	if err := s.beginLocked(); err != nil {
		return n, err
	}
	return n, nil
}

// CleanupOrphaned removes entries for paths that no longer exist on disk,
// checking existence outside the lock and deleting in batches so a single
// cleanup pass never holds the database lock for the whole scan.
func (s *Store) CleanupOrphaned(batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	s.mu.Lock()
	rows, err := s.tx.Query(`SELECT path FROM file_cache`)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			s.mu.Unlock()
			return 0, err
		}
		paths = append(paths, p)
	}
	rows.Close()
	s.mu.Unlock()

	var orphaned []string
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			orphaned = append(orphaned, p)
		}
	}
	if len(orphaned) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < len(orphaned); i += batchSize {
		end := i + batchSize
		if end > len(orphaned) {
			end = len(orphaned)
		}
		batch := orphaned[i:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		args := make([]any, len(batch))
		for j, p := range batch {
			args[j] = p
		}
		if _, err := s.tx.Exec(
			fmt.Sprintf(`DELETE FROM file_cache WHERE path IN (%s)`, placeholders),
			args...,
		); err != nil {
			return int64(i), err
		}
	}
	if err := s.commitLocked(); err != nil {
		return int64(len(orphaned)), err
	}
	if err := s.beginLocked(); err != nil {
		return int64(len(orphaned)), err
	}
	return int64(len(orphaned)), nil
}

// Vacuum compacts the database file, reclaiming space left by deletes.
// VACUUM cannot run inside a transaction, so the pending batch is committed
// first and a fresh one opened afterward.
func (s *Store) Vacuum() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.commitLocked(); err != nil {
		return err
	}
	if _, err := s.db.Exec(`VACUUM`); err != nil {
		return err
	}
	return s.beginLocked()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// mtimeMatches compares a stored fractional-seconds mtime against a
// time.Time with sub-millisecond tolerance, since REAL round-trips through
// SQLite lose precision beyond that.
func mtimeMatches(stored float64, t time.Time) bool {
	got := float64(t.UnixNano()) / float64(time.Second)
	diff := stored - got
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.001
}

func probeCaseInsensitive(dir string) bool {
	probe := filepath.Join(dir, ".storagescan-case-probe")
	if err := os.WriteFile(probe, []byte("x"), 0o644); err != nil {
		return false
	}
	defer os.Remove(probe)

	upper := filepath.Join(dir, ".STORAGESCAN-CASE-PROBE")
	_, err := os.Stat(upper)
	return err == nil
}
