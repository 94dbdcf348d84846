package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"storagescan/config"
	"storagescan/sizefilter"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := &config.Config{
		CacheDir:           t.TempDir(),
		ChunkSize:          config.DefaultChunkSize,
		SmallFileThreshold: config.DefaultSmallFileThreshold,
		QuickSample:        config.DefaultQuickSample,
		MaxFileSize:        config.DefaultMaxFileSize,
		StaleAge:           config.DefaultStaleAge,
		QuickPoolSize:      2,
		FullPoolSize:       2,
		OrphanBatchSize:    config.DefaultOrphanBatchSize,
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestFindDuplicatesEndToEnd(t *testing.T) {
	e := newTestEngine(t)
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "a.txt"), []byte("same content"), 0o644)
	os.WriteFile(filepath.Join(root, "b.txt"), []byte("same content"), 0o644)

	result, err := e.FindDuplicates(context.Background(), []string{root}, 0, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Groups) != 1 {
		t.Fatalf("expected 1 duplicate group, got %d", len(result.Groups))
	}
}

func TestFindDuplicatesEmptyRoots(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.FindDuplicates(context.Background(), nil, 0, nil, nil)
	if !errors.Is(err, ErrRootInvalid) {
		t.Fatalf("expected ErrRootInvalid, got %v", err)
	}
}

func TestFindDuplicatesInvalidRoot(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.FindDuplicates(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, 0, nil, nil)
	if !errors.Is(err, ErrRootInvalid) {
		t.Fatalf("expected ErrRootInvalid, got %v", err)
	}
}

func TestFindBySizeEndToEnd(t *testing.T) {
	e := newTestEngine(t)
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "big.bin"), make([]byte, 5000), 0o644)

	files, err := e.FindBySize(context.Background(), []string{root}, sizefilter.LargerThan, 1, sizefilter.Kilobyte, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 match, got %d", len(files))
	}
}

func TestAllDrivesNonEmpty(t *testing.T) {
	e := newTestEngine(t)
	if len(e.AllDrives()) == 0 {
		t.Fatal("expected at least one drive/root")
	}
}

func TestCacheAccessible(t *testing.T) {
	e := newTestEngine(t)
	stats, err := e.Cache().Stats("irrelevant")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalEntries != 0 {
		t.Fatalf("expected empty cache, got %d entries", stats.TotalEntries)
	}
}
