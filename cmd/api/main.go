package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"

	"github.com/samirrijal/globefolio/internal/adapters/catalog"
	"github.com/samirrijal/globefolio/internal/adapters/geoip"
	"github.com/samirrijal/globefolio/internal/adapters/http"
	natsadapter "github.com/samirrijal/globefolio/internal/adapters/nats"
	"github.com/samirrijal/globefolio/internal/adapters/postgres"
	"github.com/samirrijal/globefolio/internal/adapters/valkey"
	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/core/ports"
	"github.com/samirrijal/globefolio/internal/core/usecases"
	"github.com/samirrijal/globefolio/internal/pkg/config"
	"github.com/samirrijal/globefolio/internal/pkg/logging"
	"github.com/samirrijal/globefolio/internal/pkg/metrics"
	"github.com/samirrijal/globefolio/internal/pkg/telemetry"
	"github.com/samirrijal/globefolio/internal/workflows"
)

func main() {
	cfg, err := config.Load("globefolio-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go reportPoolStats(ctx, db)

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr, "globefolio")
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS
	var events ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer nc.Close()
		events = nc
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	// GeoIP
	var locator ports.Locator
	if cfg.GeoIP.DBPath != "" {
		l, err := geoip.Open(cfg.GeoIP.DBPath)
		if err != nil {
			slog.Warn("geoip unavailable", "error", err)
		} else {
			defer l.Close()
			locator = l
		}
	}

	// Use cases
	globe, err := usecases.NewGlobeFromCatalog(ctx, catalog.NewFileCatalog(cfg.Globe.MarkersFile), cfg.Globe.Scene(), locator)
	if err != nil {
		log.Fatalf("globe: %v", err)
	}
	slog.Info("marker catalog loaded", "markers", len(globe.Markers()), "file", cfg.Globe.MarkersFile)

	podcastSvc := usecases.NewPodcastService(postgres.NewPodcastRepo(db), cacheSvc, events, usecases.MediaURLs{BucketURL: cfg.Media.BucketURL})
	ebookSvc := usecases.NewEbookService(postgres.NewEbookRepo(db), cacheSvc)

	// Temporal publish workflow
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
			Logger:    tlog.NewStructuredLogger(slog.Default()),
		})
		if err != nil {
			slog.Warn("temporal unavailable, publishing inline", "error", err)
		} else {
			defer tc.Close()
			podcastSvc.WithLauncher(workflows.NewLauncher(tc, cfg.Temporal.TaskQueue))
		}
	}

	// Library events from other instances and the ingestor invalidate our cache
	if cacheSvc != nil {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "api-cache-invalidator")
		if err != nil {
			slog.Warn("library event subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			err = sub.SubscribeLibraryEvents(ctx, func(ctx context.Context, ev *domain.LibraryEvent) error {
				slog.Debug("library event", "kind", ev.Kind, "action", ev.Action, "id", ev.ID)
				if ev.Kind == "ebook" {
					return ebookSvc.InvalidateCache(ctx)
				}
				return podcastSvc.InvalidateCache(ctx)
			})
			if err != nil {
				slog.Warn("subscribe library events", "error", err)
			}
		}
	}

	deps := &http.Dependencies{
		Globe:      globe,
		Podcasts:   podcastSvc,
		Ebooks:     ebookSvc,
		Orbit:      cfg.Globe.Orbiter(),
		AdminToken: cfg.Server.AdminToken,
		NATS:       natsConn,
		DB:         db,
		Cache:      cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Globefolio API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Stat())
		}
	}
}
