// storagescan – a local-disk duplicate finder and size/type file auditor.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"storagescan/config"
	"storagescan/dedupe"
	"storagescan/engine"
	"storagescan/progress"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	if err := config.SaveSettings(cfg.CacheDir, config.Settings{Theme: cfg.Theme, Language: cfg.Language}); err != nil {
		log.Printf("warning: could not persist settings.json: %v", err)
	}

	e, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("engine error: %v", err)
	}
	defer e.Close()

	roots := cfg.Roots
	if len(roots) == 0 {
		roots = e.AllDrives()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	scanID := uuid.New().String()[:8]
	interactive := isatty.IsTerminal(os.Stdout.Fd())

	onEnum := progress.EnumeratorFunc(func(count uint64, path string) {
		if interactive {
			fmt.Printf("\rscan %s: %d files examined, at %s", scanID, count, path)
		}
	})
	onHash := progress.HasherFunc(func(phase progress.HashPhase, current, total uint64, path string) {
		if interactive {
			fmt.Printf("\rscan %s: %s hash %d/%d", scanID, phase, current, total)
		}
	})

	log.Printf("scan %s: starting duplicate search over %d root(s)", scanID, len(roots))

	result, err := e.FindDuplicates(ctx, roots, 0, onEnum, onHash)
	if interactive {
		fmt.Println()
	}
	if err != nil {
		log.Fatalf("scan %s: %v", scanID, err)
	}

	report(scanID, result)
}

func report(scanID string, result dedupe.Result) {
	var reclaimable int64
	for _, g := range result.Groups {
		for i := 1; i < len(g.Files); i++ {
			reclaimable += g.Files[i].Size
		}
	}

	log.Printf("scan %s: examined %d files, %d duplicate groups, %s reclaimable",
		scanID, result.FilesScanned, len(result.Groups), humanize.IBytes(uint64OrZero(reclaimable)))
	log.Printf("scan %s: %d quick-hashed, %d full-hashed, %d cache hits, %d quick-hash collisions",
		scanID, result.QuickHashed, result.FullHashed, result.CacheHits, result.QuickCollisions)

	for _, g := range result.Groups {
		fmt.Printf("\n%s (%s each):\n", g.FullHash, humanize.IBytes(uint64OrZero(g.Files[0].Size)))
		for _, f := range g.Files {
			fmt.Printf("  %s\n", f.Path)
		}
	}
}

func uint64OrZero(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
