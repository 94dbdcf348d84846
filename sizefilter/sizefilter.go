// Package sizefilter turns a size condition (larger than / smaller than /
// exactly, plus a unit) into walker bounds and a precise per-entry
// re-check, matching the two-step approach (coarse bound at scan time,
// exact comparison at match time) original_source/core/size_filter.py uses.
package sizefilter

import (
	"context"

	"github.com/dustin/go-humanize"

	"storagescan/exclude"
	"storagescan/models"
	"storagescan/progress"
	"storagescan/walker"
)

// Condition names how a file's size relates to the target value.
type Condition int

const (
	LargerThan Condition = iota
	SmallerThan
	Exactly
)

func (c Condition) String() string {
	switch c {
	case LargerThan:
		return "larger_than"
	case SmallerThan:
		return "smaller_than"
	case Exactly:
		return "exactly"
	default:
		return "unknown"
	}
}

// Unit is a size unit name accepted alongside a numeric value.
type Unit string

const (
	Byte     Unit = "B"
	Kilobyte Unit = "KB"
	Megabyte Unit = "MB"
	Gigabyte Unit = "GB"
	Terabyte Unit = "TB"
)

var unitBytes = map[Unit]int64{
	Byte:     1,
	Kilobyte: 1 << 10,
	Megabyte: 1 << 20,
	Gigabyte: 1 << 30,
	Terabyte: 1 << 40,
}

// ToBytes converts value in the given unit to a byte count. An unrecognized
// unit is treated as bytes, matching the original's dict.get(unit, 1)
// fallback.
func ToBytes(value float64, unit Unit) int64 {
	factor, ok := unitBytes[unit]
	if !ok {
		factor = 1
	}
	return int64(value * float64(factor))
}

// Options configures a Find run.
type Options struct {
	Roots     []string
	Condition Condition
	Value     float64
	Unit      Unit
	Policy    *exclude.Set
	OnEnum    progress.Enumerator
}

// Find walks every root and returns every file matching the size condition.
// The walker is given a coarse (min, max) bound so files of obviously
// non-matching sizes are rejected right after their stat, before reaching
// the sink; matchesCondition re-checks exactly, since walker bounds are
// necessarily inclusive-either-end approximations of "exactly" and
// "smaller than".
func Find(ctx context.Context, opts Options) ([]models.FileInfo, error) {
	target := ToBytes(opts.Value, opts.Unit)

	var minSize, maxSize int64
	switch opts.Condition {
	case LargerThan:
		minSize = target + 1
	case SmallerThan:
		if target > 0 {
			maxSize = target - 1
		} else {
			maxSize = 0
		}
	case Exactly:
		minSize = target
		maxSize = target
	}

	var matches []models.FileInfo
	for _, root := range opts.Roots {
		err := walker.Walk(ctx, root, walker.Options{
			MinSize:  minSize,
			MaxSize:  maxSize,
			Policy:   opts.Policy,
			Progress: opts.OnEnum,
		}, func(fi models.FileInfo) bool {
			if matchesCondition(fi.Size, opts.Condition, target) {
				matches = append(matches, fi)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return matches, nil
}

func matchesCondition(size int64, cond Condition, target int64) bool {
	switch cond {
	case LargerThan:
		return size > target
	case SmallerThan:
		return size < target
	case Exactly:
		return size == target
	default:
		return true
	}
}

// FormatSize renders a byte count as a human-readable string (e.g.
// "1.5 MiB"), delegating to go-humanize for the same binary-prefix
// formatting the rest of the codebase uses.
func FormatSize(sizeBytes int64) string {
	return humanize.IBytes(uint64max(sizeBytes))
}

func uint64max(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
