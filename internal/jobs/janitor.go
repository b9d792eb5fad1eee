package jobs

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ytclip-server/internal/config"
)

// StartJanitor evicts stale terminal progress records and sweeps
// leftover job arenas (crash recovery) on the configured interval.
func StartJanitor(cfg *config.Config, tracker *Tracker) {
	ticker := time.NewTicker(cfg.CleanupAfter)

	go func() {
		for range ticker.C {
			log.Println("🧹 Janitor: Starting scheduled cleanup...")

			if n := tracker.evictBefore(time.Now().Add(-cfg.CleanupAfter)); n > 0 {
				log.Printf("🧹 Janitor: Evicted %d finished job records", n)
			}

			sweepArenas(cfg.TempDir, cfg.CleanupAfter)

			log.Println("✅ Janitor: Cleanup finished.")
		}
	}()
}

// sweepArenas removes job temp directories older than maxAge. Live jobs
// are younger than the cleanup interval, so only orphans from crashed
// or abandoned runs match.
func sweepArenas(tempDir string, maxAge time.Duration) {
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		log.Printf("❌ Janitor Error: Could not read temp dir: %v", err)
		return
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "job-") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(tempDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Printf("❌ Janitor Error: Could not remove %s: %v", path, err)
			continue
		}
		log.Println("🧹 Cleaned up stale arena:", path)
	}
}
