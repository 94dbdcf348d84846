package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Put(path, info.Size(), info.ModTime(), "quick1", "full1"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entry, ok := s.Get(path, info.Size(), info.ModTime())
	if !ok {
		t.Fatal("expected cache hit after Put")
	}
	if entry.QuickHash != "quick1" || entry.FullHash != "full1" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestGetMissOnSizeChange(t *testing.T) {
	s := openTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	os.WriteFile(path, []byte("hello"), 0o644)
	info, _ := os.Stat(path)

	s.Put(path, info.Size(), info.ModTime(), "quick1", "full1")

	if _, ok := s.Get(path, info.Size()+1, info.ModTime()); ok {
		t.Fatal("expected miss when size diverges from cached entry")
	}
}

func TestGetMissOnMtimeChange(t *testing.T) {
	s := openTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	os.WriteFile(path, []byte("hello"), 0o644)
	info, _ := os.Stat(path)

	s.Put(path, info.Size(), info.ModTime(), "quick1", "full1")

	later := info.ModTime().Add(time.Hour)
	if _, ok := s.Get(path, info.Size(), later); ok {
		t.Fatal("expected miss when mtime diverges from cached entry")
	}
}

func TestGetMissWhenAbsent(t *testing.T) {
	s := openTestStore(t)
	if _, ok := s.Get("/nowhere/nothing", 0, time.Now()); ok {
		t.Fatal("expected miss for never-inserted path")
	}
}

func TestCleanupStaleRemovesOldEntries(t *testing.T) {
	s := openTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	os.WriteFile(path, []byte("hello"), 0o644)
	info, _ := os.Stat(path)
	s.Put(path, info.Size(), info.ModTime(), "q", "f")

	// Force last_checked into the past by writing directly through the
	// in-flight batch transaction (s.db is checked out by s.tx, so a second
	// statement against s.db here would deadlock under SetMaxOpenConns(1)).
	s.mu.Lock()
	_, err := s.tx.Exec(`UPDATE file_cache SET last_checked = 0`)
	s.mu.Unlock()
	if err != nil {
		t.Fatal(err)
	}

	n, err := s.CleanupStale(24 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 stale entry removed, got %d", n)
	}

	if _, ok := s.Get(path, info.Size(), info.ModTime()); ok {
		t.Fatal("expected entry gone after stale cleanup")
	}
}

func TestCleanupOrphanedRemovesMissingFiles(t *testing.T) {
	s := openTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	os.WriteFile(path, []byte("hello"), 0o644)
	info, _ := os.Stat(path)
	s.Put(path, info.Size(), info.ModTime(), "q", "f")

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	n, err := s.CleanupOrphaned(1000)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 orphaned entry removed, got %d", n)
	}
}

func TestClearAll(t *testing.T) {
	s := openTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	os.WriteFile(path, []byte("hello"), 0o644)
	info, _ := os.Stat(path)
	s.Put(path, info.Size(), info.ModTime(), "q", "f")

	if err := s.ClearAll(); err != nil {
		t.Fatal(err)
	}
	stats, err := s.Stats("irrelevant")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalEntries != 0 {
		t.Fatalf("expected 0 entries after ClearAll, got %d", stats.TotalEntries)
	}
}
