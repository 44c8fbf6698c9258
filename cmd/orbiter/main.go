package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samirrijal/globefolio/internal/adapters/catalog"
	natsadapter "github.com/samirrijal/globefolio/internal/adapters/nats"
	"github.com/samirrijal/globefolio/internal/core/usecases"
	"github.com/samirrijal/globefolio/internal/pkg/config"
	"github.com/samirrijal/globefolio/internal/pkg/logging"
	"github.com/samirrijal/globefolio/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("globefolio-orbiter")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	globe, err := usecases.NewGlobeFromCatalog(ctx, catalog.NewFileCatalog(cfg.Globe.MarkersFile), cfg.Globe.Scene(), nil)
	if err != nil {
		log.Fatalf("globe: %v", err)
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	oc := cfg.Globe.Orbiter()
	oc.ReportMetrics = true
	orbiter, err := usecases.NewOrbiter(globe, pub, oc)
	if err != nil {
		log.Fatalf("orbiter: %v", err)
	}

	slog.Info("orbiter started",
		"markers", len(globe.Markers()),
		"interval", cfg.Globe.FrameInterval,
		"speed", cfg.Globe.RotationSpeed,
		"subject", natsadapter.SubjectFrames,
	)
	if err := orbiter.Run(ctx); err != nil {
		slog.Error("orbiter stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("orbiter stopped")
}
