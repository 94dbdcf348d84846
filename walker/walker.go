// Package walker implements the cancellable, exclusion-aware directory
// enumeration that every other scan component builds on.
package walker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"storagescan/exclude"
	"storagescan/models"
	"storagescan/progress"
)

// Options bounds and configures a single walk.
type Options struct {
	// MinSize and MaxSize bound accepted file sizes in bytes. MaxSize of 0
	// means unbounded.
	MinSize int64
	MaxSize int64

	// Policy is the exclusion policy to apply; the zero value falls back to
	// exclude.Default.
	Policy *exclude.Set

	// ProgressStride is how many observations elapse between Enumerator
	// callbacks; 0 falls back to config.DefaultProgressStride.
	ProgressStride uint64

	// Progress receives periodic enumeration updates. A nil value is
	// treated as progress.Discard{}.
	Progress progress.Enumerator
}

// Sink receives each accepted entry as the walk discovers it. Returning
// false stops the walk early (distinct from cancellation: the caller chose
// to stop, not the context).
type Sink func(models.FileInfo) bool

const defaultProgressStride = 500

// Walk performs a single-rooted, depth-first, cancellable enumeration,
// invoking sink for every regular file that clears the exclusion policy and
// the configured size bounds. It never materializes the whole tree in
// memory — sink is called synchronously as entries are discovered, letting
// callers bound memory with their own buffered channel if they want
// concurrent consumption (package dedupe consumes it synchronously).
//
// Walk returns a non-nil error only if root itself is invalid (does not
// exist or is not a directory); per-entry I/O errors are skipped silently.
func Walk(ctx context.Context, root string, opts Options, sink Sink) error {
	policy := opts.Policy
	if policy == nil {
		policy = &exclude.Default
	}
	stride := opts.ProgressStride
	if stride == 0 {
		stride = defaultProgressStride
	}
	prog := opts.Progress
	if prog == nil {
		prog = progress.Discard{}
	}

	info, err := os.Stat(root)
	if err != nil {
		return &RootInvalidError{Root: root, Cause: err}
	}
	if !info.IsDir() {
		return &RootInvalidError{Root: root, Cause: errNotADirectory}
	}
	if !policy.IsDirNameSafe(filepath.Base(filepath.Clean(root))) {
		return nil
	}

	var observed uint64
	w := &walk{
		ctx:     ctx,
		policy:  policy,
		opts:    opts,
		stride:  stride,
		prog:    prog,
		sink:    sink,
		observed: &observed,
	}
	w.walkDir(root)
	return nil
}

type walk struct {
	ctx      context.Context
	policy   *exclude.Set
	opts     Options
	stride   uint64
	prog     progress.Enumerator
	sink     Sink
	observed *uint64
	stopped  bool
}

func (w *walk) cancelled() bool {
	select {
	case <-w.ctx.Done():
		return true
	default:
		return false
	}
}

// walkDir recurses into dir, pruning excluded subdirectories before
// descending and applying the exclusion + size filters to each regular
// file it finds.
func (w *walk) walkDir(dir string) {
	if w.stopped || w.cancelled() {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable directory: skip silently (spec.md §4.2, §7 PerFileIO).
		return
	}

	for _, entry := range entries {
		if w.stopped || w.cancelled() {
			return
		}

		name := entry.Name()
		full := filepath.Join(dir, name)

		if entry.IsDir() {
			if w.policy.IsDirNameSafe(name) {
				w.walkDir(full)
			}
			continue
		}

		if !entry.Type().IsRegular() {
			continue // symlinks, devices, sockets: not "regular files" per spec.md §1
		}

		w.visitFile(full, name)
	}
}

func (w *walk) visitFile(path, name string) {
	ext := strings.ToLower(filepath.Ext(name))
	if !w.policy.IsFileSafe(name, ext) {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return // vanished or permission denied between ReadDir and Stat: skip silently
	}

	count := atomic.AddUint64(w.observed, 1)
	if count%w.stride == 0 {
		// Fire-and-forget: never let a slow collaborator slow the walk.
		go w.prog.OnEnum(count, path)
	}

	size := info.Size()
	if size < w.opts.MinSize {
		return
	}
	if w.opts.MaxSize > 0 && size > w.opts.MaxSize {
		return
	}

	fi := models.FileInfo{
		Path:       path,
		Name:       name,
		Size:       size,
		ModTime:    info.ModTime(),
		ChangeTime: changeTime(info),
		Extension:  ext,
	}

	if !w.sink(fi) {
		w.stopped = true
	}
}
