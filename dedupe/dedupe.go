// Package dedupe implements the four-phase duplicate-detection pipeline:
// enumerate, group by size, quick-hash, group by quick digest, full-hash
// (with small-file promotion), group by full digest, filter groups of two
// or more. Grounded on original_source/core/duplicate_finder.py's
// find_duplicates, restructured around bounded worker pools instead of a
// single sequential pass.
package dedupe

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"storagescan/cache"
	"storagescan/exclude"
	"storagescan/filehash"
	"storagescan/models"
	"storagescan/progress"
	"storagescan/walker"
)

// Policy selects which file in a duplicate group is kept when the caller
// asks which paths to delete.
type Policy int

const (
	Newest Policy = iota
	Oldest
	FirstPath
)

// Options configures a FindDuplicates run.
type Options struct {
	Roots   []string
	MinSize int64
	MaxSize int64
	Policy  *exclude.Set // nil means exclude.Default

	SmallFileThreshold int64 // files at or below this size get one full read instead of quick+full
	QuickPoolSize      int
	FullPoolSize       int

	Hasher *filehash.Hasher
	Cache  *cache.Store // nil disables caching

	OnEnum progress.Enumerator
	OnHash progress.Hasher
}

// Result is the outcome of a FindDuplicates run.
type Result struct {
	Groups []models.DuplicateGroup

	FilesScanned    uint64
	QuickHashed     uint64
	FullHashed      uint64
	CacheHits       uint64
	QuickCollisions uint64 // quick-hash groups that split into >1 full-hash group

	Cancelled bool
}

// FindDuplicates walks every root, groups files by size, then by quick
// digest, then by full digest, and returns every group with two or more
// members. On cancellation it returns a Result with Cancelled set and no
// partial groups — a cancelled run reports nothing found rather than an
// incomplete answer.
func FindDuplicates(ctx context.Context, opts Options) (Result, error) {
	policy := opts.Policy
	if policy == nil {
		policy = &exclude.Default
	}
	quickPool := opts.QuickPoolSize
	if quickPool <= 0 {
		quickPool = 8
	}
	fullPool := opts.FullPoolSize
	if fullPool <= 0 {
		fullPool = 4
	}
	smallThreshold := opts.SmallFileThreshold
	if smallThreshold <= 0 {
		smallThreshold = 1 << 20
	}
	onEnum := opts.OnEnum
	if onEnum == nil {
		onEnum = progress.Discard{}
	}
	onHash := opts.OnHash
	if onHash == nil {
		onHash = progress.Discard{}
	}

	var result Result

	// Phase 1: enumerate, grouping by size as files are discovered.
	sizeGroups := make(map[int64][]models.FileInfo)
	for _, root := range opts.Roots {
		err := walker.Walk(ctx, root, walker.Options{
			MinSize:  opts.MinSize,
			MaxSize:  opts.MaxSize,
			Policy:   policy,
			Progress: onEnum,
		}, func(fi models.FileInfo) bool {
			sizeGroups[fi.Size] = append(sizeGroups[fi.Size], fi)
			atomic.AddUint64(&result.FilesScanned, 1)
			return true
		})
		if err != nil {
			return Result{}, err
		}
		if ctx.Err() != nil {
			return Result{Cancelled: true}, nil
		}
	}

	// Only sizes with 2+ files can possibly contain a duplicate.
	var quickCandidates []models.FileInfo
	for _, files := range sizeGroups {
		if len(files) >= 2 {
			quickCandidates = append(quickCandidates, files...)
		}
	}

	// Phase 2: quick hash (or, for small files, a direct full hash —
	// small-file promotion). Results partition by (size, quickHash).
	hashed, err := runQuickPhase(ctx, quickCandidates, opts, quickPool, smallThreshold, onHash, &result)
	if err != nil {
		return Result{}, err
	}
	if ctx.Err() != nil {
		return Result{Cancelled: true}, nil
	}

	quickGroups := make(map[string][]models.FileInfo)
	for _, fi := range hashed {
		quickGroups[groupKey(fi.Size, fi.QuickHash)] = append(quickGroups[groupKey(fi.Size, fi.QuickHash)], fi)
	}

	// Promoted small files already carry their final full hash; non-promoted
	// files still need the full-hash phase applied to groups of 2+. A single
	// quick-hash group can contain a mix of both (e.g. two members served
	// from the cache with a full hash already recorded, alongside a third
	// freshly quick-hashed member) — the decision is made per file, never by
	// inspecting one representative member of the group.
	var fullCandidates []models.FileInfo
	quickKeyOf := make(map[string]string) // path -> its originating quick-group key
	fullGroups := make(map[string][]models.FileInfo)

	for key, files := range quickGroups {
		if len(files) < 2 {
			continue
		}
		for _, fi := range files {
			if fi.FullHash != "" {
				// Promoted: already fully hashed, group directly.
				fullGroups[fi.FullHash] = append(fullGroups[fi.FullHash], fi)
				continue
			}
			quickKeyOf[fi.Path] = key
			fullCandidates = append(fullCandidates, fi)
		}
	}

	// Phase 3: full hash for the remaining candidates.
	fullHashed, err := runFullPhase(ctx, fullCandidates, opts, fullPool, onHash, &result)
	if err != nil {
		return Result{}, err
	}
	if ctx.Err() != nil {
		return Result{Cancelled: true}, nil
	}

	// Telemetry: a quick-hash group that produced more than one distinct
	// full-hash group was a genuine quick-hash collision (same size and
	// sampled bytes, different content).
	fullHashesByQuickKey := make(map[string]map[string]bool)
	for _, fi := range fullHashed {
		fullGroups[fi.FullHash] = append(fullGroups[fi.FullHash], fi)
		quickKey := quickKeyOf[fi.Path]
		if fullHashesByQuickKey[quickKey] == nil {
			fullHashesByQuickKey[quickKey] = make(map[string]bool)
		}
		fullHashesByQuickKey[quickKey][fi.FullHash] = true
	}
	for _, set := range fullHashesByQuickKey {
		if len(set) > 1 {
			result.QuickCollisions++
		}
	}

	// Phase 4: filter to groups with 2+ members.
	for fullHash, files := range fullGroups {
		if len(files) < 2 {
			continue
		}
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
		result.Groups = append(result.Groups, models.DuplicateGroup{FullHash: fullHash, Files: files})
	}
	sort.Slice(result.Groups, func(i, j int) bool { return result.Groups[i].FullHash < result.Groups[j].FullHash })

	if opts.Cache != nil {
		opts.Cache.Flush()
	}

	return result, nil
}

func runQuickPhase(
	ctx context.Context,
	candidates []models.FileInfo,
	opts Options,
	poolSize int,
	smallThreshold int64,
	onHash progress.Hasher,
	result *Result,
) ([]models.FileInfo, error) {
	return runPool(ctx, candidates, poolSize, progress.PhaseQuick, onHash, func(fi models.FileInfo) (models.FileInfo, error) {
		if opts.Cache != nil {
			if entry, ok := opts.Cache.Get(fi.Path, fi.Size, fi.ModTime); ok {
				atomic.AddUint64(&result.CacheHits, 1)
				fi.QuickHash = entry.QuickHash
				fi.FullHash = entry.FullHash
				if fi.Size <= smallThreshold && fi.FullHash != "" {
					return fi, nil
				}
				if fi.QuickHash != "" {
					return fi, nil
				}
			}
		}

		if fi.Size <= smallThreshold {
			full, err := opts.Hasher.HashFull(ctx, fi.Path)
			if err != nil {
				fi.Err = err
				return fi, nil
			}
			fi.QuickHash = full
			fi.FullHash = full
			if opts.Cache != nil {
				opts.Cache.Put(fi.Path, fi.Size, fi.ModTime, full, full)
			}
			atomic.AddUint64(&result.FullHashed, 1)
			return fi, nil
		}

		quick, err := opts.Hasher.HashQuick(ctx, fi.Path)
		if err != nil {
			fi.Err = err
			return fi, nil
		}
		fi.QuickHash = quick
		if opts.Cache != nil {
			opts.Cache.Put(fi.Path, fi.Size, fi.ModTime, quick, "")
		}
		atomic.AddUint64(&result.QuickHashed, 1)
		return fi, nil
	})
}

func runFullPhase(
	ctx context.Context,
	candidates []models.FileInfo,
	opts Options,
	poolSize int,
	onHash progress.Hasher,
	result *Result,
) ([]models.FileInfo, error) {
	return runPool(ctx, candidates, poolSize, progress.PhaseFull, onHash, func(fi models.FileInfo) (models.FileInfo, error) {
		full, err := opts.Hasher.HashFull(ctx, fi.Path)
		if err != nil {
			fi.Err = err
			return fi, nil
		}
		fi.FullHash = full
		if opts.Cache != nil {
			opts.Cache.Put(fi.Path, fi.Size, fi.ModTime, fi.QuickHash, full)
		}
		atomic.AddUint64(&result.FullHashed, 1)
		return fi, nil
	})
}

// runPool fans candidates out across poolSize workers, applying fn to each
// and collecting the (possibly error-tagged) results. A per-file error is
// recorded on the FileInfo and the file is dropped from later grouping
// rather than aborting the run; only ctx cancellation stops the whole pool.
func runPool(
	ctx context.Context,
	candidates []models.FileInfo,
	poolSize int,
	phase progress.HashPhase,
	onHash progress.Hasher,
	fn func(models.FileInfo) (models.FileInfo, error),
) ([]models.FileInfo, error) {
	total := uint64(len(candidates))
	if total == 0 {
		return nil, nil
	}

	in := make(chan models.FileInfo)
	var mu sync.Mutex
	var out []models.FileInfo
	var processed uint64

	var wg sync.WaitGroup
	for i := 0; i < poolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fi := range in {
				if ctx.Err() != nil {
					continue
				}
				processedFi, err := fn(fi)
				if err != nil {
					continue
				}
				n := atomic.AddUint64(&processed, 1)
				if n%10 == 0 || n == total {
					go onHash.OnHashPhase(phase, n, total, processedFi.Path)
				}
				if processedFi.Err == nil {
					mu.Lock()
					out = append(out, processedFi)
					mu.Unlock()
				}
			}
		}()
	}

feed:
	for _, fi := range candidates {
		select {
		case <-ctx.Done():
			break feed
		case in <- fi:
		}
	}
	close(in)
	wg.Wait()

	return out, nil
}

func groupKey(size int64, hash string) string {
	return strconv.FormatInt(size, 10) + "|" + hash
}

// FilesToDelete applies policy to group and returns the paths that should be
// removed, keeping exactly one copy. Groups of fewer than two files return
// nil — there is nothing to delete.
func FilesToDelete(group models.DuplicateGroup, policy Policy) []string {
	if len(group.Files) <= 1 {
		return nil
	}

	files := make([]models.FileInfo, len(group.Files))
	copy(files, group.Files)

	switch policy {
	case Newest:
		sort.Slice(files, func(i, j int) bool { return files[i].ModTime.After(files[j].ModTime) })
	case Oldest:
		sort.Slice(files, func(i, j int) bool { return files[i].ModTime.Before(files[j].ModTime) })
	case FirstPath:
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	}

	out := make([]string, 0, len(files)-1)
	for _, fi := range files[1:] {
		out = append(out, fi.Path)
	}
	return out
}
