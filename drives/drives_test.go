//go:build !windows

package drives

import "testing"

func TestAllReturnsRoot(t *testing.T) {
	got := All()
	if len(got) != 1 || got[0] != "/" {
		t.Fatalf("expected [\"/\"], got %v", got)
	}
}

func TestSpaceForRoot(t *testing.T) {
	total, free, err := SpaceFor("/")
	if err != nil {
		t.Fatal(err)
	}
	if total == 0 {
		t.Fatal("expected non-zero total space for /")
	}
	if free > total {
		t.Fatalf("free (%d) must not exceed total (%d)", free, total)
	}
}
