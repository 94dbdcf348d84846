package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"storagescan/models"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data := make([]byte, size)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWalkRespectsExclusions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"), 10)
	writeFile(t, filepath.Join(root, ".git", "config"), 10)
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), 10)
	writeFile(t, filepath.Join(root, "pagefile.sys"), 10)

	var got []models.FileInfo
	err := Walk(context.Background(), root, Options{}, func(fi models.FileInfo) bool {
		got = append(got, fi)
		return true
	})
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "keep.txt" {
		t.Fatalf("expected exactly keep.txt, got %+v", got)
	}
}

func TestWalkSizeBounds(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "small.bin"), 100)
	writeFile(t, filepath.Join(root, "big.bin"), 10_000)

	var got []string
	err := Walk(context.Background(), root, Options{MinSize: 1000}, func(fi models.FileInfo) bool {
		got = append(got, fi.Name)
		return true
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "big.bin" {
		t.Fatalf("expected only big.bin, got %v", got)
	}
}

func TestWalkInvalidRoot(t *testing.T) {
	err := Walk(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"), Options{}, func(models.FileInfo) bool {
		return true
	})
	var rootErr *RootInvalidError
	if err == nil {
		t.Fatal("expected RootInvalidError, got nil")
	}
	if !asRootInvalid(err, &rootErr) {
		t.Fatalf("expected *RootInvalidError, got %T: %v", err, err)
	}
}

func asRootInvalid(err error, target **RootInvalidError) bool {
	if e, ok := err.(*RootInvalidError); ok {
		*target = e
		return true
	}
	return false
}

func TestWalkCancellation(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 50; i++ {
		writeFile(t, filepath.Join(root, "sub", string(rune('a'+i%26)), "f.bin"), 10)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel before the walk even starts

	var got int
	err := Walk(ctx, root, Options{}, func(models.FileInfo) bool {
		got++
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected zero entries after pre-cancellation, got %d", got)
	}
}

func TestWalkSinkStopsEarly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.bin"), 10)
	writeFile(t, filepath.Join(root, "b.bin"), 10)

	var got int
	_ = Walk(context.Background(), root, Options{}, func(models.FileInfo) bool {
		got++
		return false // stop after the first entry
	})
	if got != 1 {
		t.Fatalf("expected exactly one entry before sink stopped the walk, got %d", got)
	}
}
