package filehash

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func randBytes(n int, seed int64) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

func TestHashFullIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	data := randBytes(4096, 1)
	a := write(t, dir, "a.bin", data)
	b := write(t, dir, "b.bin", bytes.Clone(data))
	c := write(t, dir, "c.bin", randBytes(4096, 2))

	h := New(0, 0, nil)
	ctx := context.Background()

	ha, err := h.HashFull(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	hb, err := h.HashFull(ctx, b)
	if err != nil {
		t.Fatal(err)
	}
	hc, err := h.HashFull(ctx, c)
	if err != nil {
		t.Fatal(err)
	}

	if ha != hb {
		t.Fatalf("identical content hashed differently: %s != %s", ha, hb)
	}
	if ha == hc {
		t.Fatalf("different content hashed identically: %s == %s", ha, hc)
	}
}

func TestHashQuickBoundaryAtSampleSize(t *testing.T) {
	dir := t.TempDir()
	// Exactly 1024 bytes: the second (tail) read must be skipped entirely,
	// not attempted as a seek past EOF.
	data := randBytes(1024, 1)
	p := write(t, dir, "exact.bin", data)

	h := New(0, 0, nil)
	if _, err := h.HashQuick(context.Background(), p); err != nil {
		t.Fatalf("HashQuick at exact sample boundary: %v", err)
	}
}

func TestHashQuickEmptyFile(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "empty.bin", nil)

	h := New(0, 0, nil)
	q1, err := h.HashQuick(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}

	p2 := write(t, dir, "empty2.bin", nil)
	q2, err := h.HashQuick(context.Background(), p2)
	if err != nil {
		t.Fatal(err)
	}
	if q1 != q2 {
		t.Fatalf("two empty files must share a quick hash: %s != %s", q1, q2)
	}
}

func TestHashQuickDependsOnSizeAndEnds(t *testing.T) {
	dir := t.TempDir()
	// Same first/last 1024 bytes, same size, different middle: quick hash
	// must match even though content differs (spec.md §8 — this is the
	// known, accepted collision case the full hash resolves).
	head := randBytes(1024, 1)
	tail := randBytes(1024, 2)
	mid1 := randBytes(2048, 3)
	mid2 := randBytes(2048, 4)

	data1 := append(append(bytes.Clone(head), mid1...), tail...)
	data2 := append(append(bytes.Clone(head), mid2...), tail...)

	p1 := write(t, dir, "f1.bin", data1)
	p2 := write(t, dir, "f2.bin", data2)

	h := New(0, 0, nil)
	q1, err := h.HashQuick(context.Background(), p1)
	if err != nil {
		t.Fatal(err)
	}
	q2, err := h.HashQuick(context.Background(), p2)
	if err != nil {
		t.Fatal(err)
	}
	if q1 != q2 {
		t.Fatalf("expected quick-hash collision on matching head/tail, got %s != %s", q1, q2)
	}

	full1, err := h.HashFull(context.Background(), p1)
	if err != nil {
		t.Fatal(err)
	}
	full2, err := h.HashFull(context.Background(), p2)
	if err != nil {
		t.Fatal(err)
	}
	if full1 == full2 {
		t.Fatalf("full hash must distinguish differing middle content")
	}
}
