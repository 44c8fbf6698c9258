package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/globefolio/internal/adapters/nats"
	"github.com/samirrijal/globefolio/internal/adapters/postgres"
	"github.com/samirrijal/globefolio/internal/adapters/valkey"
	"github.com/samirrijal/globefolio/internal/core/ports"
	"github.com/samirrijal/globefolio/internal/core/usecases"
	"github.com/samirrijal/globefolio/internal/pkg/config"
	"github.com/samirrijal/globefolio/internal/pkg/logging"
	"github.com/samirrijal/globefolio/internal/workflows"
)

func main() {
	cfg, err := config.Load("globefolio-publisher")
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

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr, "globefolio"); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	// Announcing is the step the workflow compensates, so the broker is required.
	events, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer events.Close()

	library := usecases.NewPodcastService(postgres.NewPodcastRepo(db), cache, events, usecases.MediaURLs{BucketURL: cfg.Media.BucketURL})

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.PublishEpisodeWorkflow)
	w.RegisterActivity(&workflows.PublishActivities{Library: library})

	slog.Info("publish worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
