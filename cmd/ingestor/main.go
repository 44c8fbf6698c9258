package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"sync"
	"time"

	natsadapter "github.com/samirrijal/globefolio/internal/adapters/nats"
	"github.com/samirrijal/globefolio/internal/adapters/postgres"
	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/core/ports"
	"github.com/samirrijal/globefolio/internal/pkg/config"
	"github.com/samirrijal/globefolio/internal/pkg/logging"
)

const batchSize = 50

func main() {
	cfg, err := config.Load("globefolio-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	manifestPath := "library.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	lib, err := loadManifest(manifestPath)
	if err != nil {
		log.Fatalf("manifest: %v", err)
	}
	slog.Info("library manifest loaded", "path", manifestPath, "podcasts", len(lib.Podcasts), "ebooks", len(lib.Ebooks))

	// Running API instances drop their cache when they see the announcement.
	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, skipping announcements", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	podcasts := postgres.NewPodcastRepo(db)
	ebooks := postgres.NewEbookRepo(db)

	var wg sync.WaitGroup
	sem := make(chan struct{}, 4) // max 4 concurrent batches
	var mu sync.Mutex
	var failed int

	run := func(kind string, n int, upsert func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := upsert(); err != nil {
				slog.Error("batch failed", "kind", kind, "size", n, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			slog.Info("batch stored", "kind", kind, "size", n)
		}()
	}

	for _, batch := range chunk(lib.Podcasts, batchSize) {
		run("podcast", len(batch), func() error { return podcasts.UpsertBatch(ctx, batch) })
	}
	for _, batch := range chunk(lib.Ebooks, batchSize) {
		run("ebook", len(batch), func() error { return ebooks.UpsertBatch(ctx, batch) })
	}
	wg.Wait()

	if events != nil {
		now := time.Now().UTC()
		for _, p := range lib.Podcasts {
			_ = events.PublishLibraryEvent(ctx, &domain.LibraryEvent{Kind: "podcast", Action: "published", ID: p.ID, Time: now})
		}
		for _, e := range lib.Ebooks {
			_ = events.PublishLibraryEvent(ctx, &domain.LibraryEvent{Kind: "ebook", Action: "published", ID: e.ID, Time: now})
		}
	}

	if failed > 0 {
		log.Fatalf("ingestion finished with %d failed batches", failed)
	}
	slog.Info("ingestion complete")
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
