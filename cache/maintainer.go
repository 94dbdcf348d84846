package cache

import (
	"log"
	"time"
)

// Maintainer periodically sweeps a Store for stale and orphaned entries and
// keeps the database file compact, the same background-GC shape the teacher
// project used for its in-memory directory-size cache, adapted here to a
// persisted store: orphan existence checks run off the lock, only the
// delete itself takes it (stale cleanup is a single DELETE under the lock).
type Maintainer struct {
	store    *Store
	interval time.Duration
	maxAge   time.Duration
	batch    int

	stop chan struct{}
}

// NewMaintainer builds a Maintainer; call Start to begin the background
// sweep and Stop to end it.
func NewMaintainer(store *Store, interval, maxAge time.Duration, batch int) *Maintainer {
	return &Maintainer{
		store:    store,
		interval: interval,
		maxAge:   maxAge,
		batch:    batch,
		stop:     make(chan struct{}),
	}
}

// Start launches the periodic sweep in a background goroutine. Safe to call
// once; calling Stop ends it.
func (m *Maintainer) Start() {
	go m.loop()
}

// Stop ends the background sweep. Safe to call at most once.
func (m *Maintainer) Stop() {
	close(m.stop)
}

// initialDelay is deliberately short: the first sweep shouldn't wait a full
// interval behind a long-running process, it just shouldn't race Open.
const initialDelay = 10 * time.Second

func (m *Maintainer) loop() {
	initial := time.NewTimer(initialDelay)
	defer initial.Stop()

	select {
	case <-m.stop:
		return
	case <-initial.C:
		m.sweep()
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Maintainer) sweep() {
	orphaned, err := m.store.CleanupOrphaned(m.batch)
	if err != nil {
		log.Printf("cache: orphan cleanup error: %v", err)
	} else if orphaned > 0 {
		log.Printf("cache: removed %d orphaned entries", orphaned)
	}

	stale, err := m.store.CleanupStale(m.maxAge)
	if err != nil {
		log.Printf("cache: stale cleanup error: %v", err)
	} else if stale > 0 {
		log.Printf("cache: removed %d stale entries", stale)
	}

	if stale > 0 || orphaned > 0 {
		if err := m.store.Vacuum(); err != nil {
			log.Printf("cache: vacuum error: %v", err)
		}
	}
}
