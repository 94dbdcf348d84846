// Package engine is the facade tying every collaborator — walker,
// filehash, cache, dedupe, sizefilter, typefilter, drives — into the small
// set of operations a front-end (CLI or otherwise) actually calls.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storagescan/cache"
	"storagescan/config"
	"storagescan/dedupe"
	"storagescan/drives"
	"storagescan/exclude"
	"storagescan/filehash"
	"storagescan/progress"
	"storagescan/sizefilter"
	"storagescan/typefilter"
	"storagescan/walker"

	"golang.org/x/time/rate"

	"storagescan/models"
)

// Engine owns the long-lived collaborators (hash cache, hasher, exclusion
// policy) a front-end otherwise has to wire up by hand.
type Engine struct {
	cfg    *config.Config
	cache  *cache.Store
	hasher *filehash.Hasher
	policy *exclude.Set
	maint  *cache.Maintainer
}

// New constructs an Engine from a resolved Config, opening the hash cache
// and starting its background maintenance loop.
func New(cfg *config.Config) (*Engine, error) {
	store, err := cache.Open(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("engine: open cache: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.MaxReadBytesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxReadBytesPerSec), cfg.ChunkSize*4)
	}

	e := &Engine{
		cfg:    cfg,
		cache:  store,
		hasher: filehash.New(cfg.ChunkSize, cfg.QuickSample, limiter),
		policy: &exclude.Default,
	}

	e.maint = cache.NewMaintainer(store, 10*time.Minute, cfg.StaleAge, cfg.OrphanBatchSize)
	e.maint.Start()

	return e, nil
}

// Close stops background maintenance and releases the hash cache.
func (e *Engine) Close() error {
	e.maint.Stop()
	return e.cache.Close()
}

// FindDuplicates runs the four-phase duplicate pipeline over roots and
// returns the full result, including the telemetry counters (quick-hash
// collisions, cache hits) spec.md §9 calls for surfacing.
func (e *Engine) FindDuplicates(
	ctx context.Context,
	roots []string,
	minSize int64,
	onEnum progress.Enumerator,
	onHash progress.Hasher,
) (dedupe.Result, error) {
	if len(roots) == 0 {
		return dedupe.Result{}, ErrRootInvalid
	}
	result, err := dedupe.FindDuplicates(ctx, dedupe.Options{
		Roots:              roots,
		MinSize:            minSize,
		MaxSize:            e.cfg.MaxFileSize,
		Policy:             e.policy,
		SmallFileThreshold: e.cfg.SmallFileThreshold,
		QuickPoolSize:      e.cfg.QuickPoolSize,
		FullPoolSize:       e.cfg.FullPoolSize,
		Hasher:             e.hasher,
		Cache:              e.cache,
		OnEnum:             onEnum,
		OnHash:             onHash,
	})
	if err != nil {
		return dedupe.Result{}, wrapRootErr(err)
	}
	if result.Cancelled {
		return result, ErrCancelled
	}
	return result, nil
}

// FindBySize returns every file matching a size condition across roots.
func (e *Engine) FindBySize(
	ctx context.Context,
	roots []string,
	cond sizefilter.Condition,
	value float64,
	unit sizefilter.Unit,
	onEnum progress.Enumerator,
) ([]models.FileInfo, error) {
	if len(roots) == 0 {
		return nil, ErrRootInvalid
	}
	files, err := sizefilter.Find(ctx, sizefilter.Options{
		Roots:     roots,
		Condition: cond,
		Value:     value,
		Unit:      unit,
		Policy:    e.policy,
		OnEnum:    onEnum,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, wrapRootErr(err)
	}
	return files, nil
}

// FindByType returns every file matching one of the named type categories
// across roots.
func (e *Engine) FindByType(
	ctx context.Context,
	roots []string,
	categories []string,
	onEnum progress.Enumerator,
) ([]models.FileInfo, error) {
	if len(roots) == 0 {
		return nil, ErrRootInvalid
	}
	files, err := typefilter.Find(ctx, typefilter.Options{
		Roots:  roots,
		Keys:   categories,
		Policy: e.policy,
		OnEnum: onEnum,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, wrapRootErr(err)
	}
	return files, nil
}

// AllDrives returns every drive/root the current platform exposes as a
// scannable top-level location.
func (e *Engine) AllDrives() []string {
	return drives.All()
}

// Cache exposes the hash cache's maintenance operations to a front-end
// (e.g. a "clear cache" CLI command).
func (e *Engine) Cache() *cache.Store {
	return e.cache
}

func wrapRootErr(err error) error {
	var rootErr *walker.RootInvalidError
	if errors.As(err, &rootErr) {
		return fmt.Errorf("%w: %v", ErrRootInvalid, rootErr)
	}
	return err
}
