package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/giovanto/overhead/internal/adapters/postgres"
	"github.com/giovanto/overhead/internal/core/domain"
	"github.com/giovanto/overhead/internal/pkg/config"
)

// backfill imports snapshot JSON files written by the collector into the
// database. Files already covered by stored data are skipped using the
// latest observation time per area as a high-water mark, so re-runs are
// safe.
func main() {
	cfg, err := config.Load("overhead-backfill")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	dir := cfg.Collector.SnapshotDir
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalf("read snapshot dir %s: %v", dir, err)
	}

	// Oldest first, so a partial run leaves a clean high-water mark.
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	log.Printf("backfill: %d snapshot files in %s", len(names), dir)

	repo := postgres.NewObservationRepo(db)
	watermarks := make(map[string]time.Time)
	totalInserted, totalSkipped := 0, 0

	for _, name := range names {
		area := areaFromFilename(name)
		if area == "" {
			log.Printf("SKIP %s: cannot derive area from filename", name)
			continue
		}

		mark, ok := watermarks[area]
		if !ok {
			mark, err = repo.LatestObservationTime(ctx, area)
			if err != nil {
				log.Fatalf("high-water mark for %s: %v", area, err)
			}
			watermarks[area] = mark
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("ERROR %s: %v", name, err)
			continue
		}

		var reports []domain.ClassifiedReport
		if err := json.Unmarshal(data, &reports); err != nil {
			log.Printf("ERROR %s: parse: %v", name, err)
			continue
		}

		fresh := reports[:0]
		for _, r := range reports {
			if !r.Time.After(mark) {
				totalSkipped++
				continue
			}
			if r.Area == "" {
				r.Area = area
			}
			fresh = append(fresh, r)
		}

		if len(fresh) == 0 {
			continue
		}

		inserted, err := repo.InsertBatch(ctx, fresh)
		if err != nil {
			log.Fatalf("insert %s: %v", name, err)
		}
		totalInserted += inserted

		// Advance the mark so overlapping snapshots don't re-insert.
		for _, r := range fresh {
			if r.Time.After(watermarks[area]) {
				watermarks[area] = r.Time
			}
		}

		log.Printf("[%s] %s: %d inserted", area, name, inserted)
	}

	log.Printf("backfill complete: %d inserted, %d already covered", totalInserted, totalSkipped)
}

// areaFromFilename extracts the area from "<area>_<timestamp>.json".
func areaFromFilename(name string) string {
	base := strings.TrimSuffix(name, ".json")
	idx := strings.LastIndex(base, "_")
	if idx <= 0 {
		return ""
	}
	return base[:idx]
}
