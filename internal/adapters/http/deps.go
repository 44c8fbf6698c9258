package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/globefolio/internal/adapters/postgres"
	"github.com/samirrijal/globefolio/internal/adapters/valkey"
	"github.com/samirrijal/globefolio/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Globe    *usecases.GlobeService
	Podcasts *usecases.PodcastService
	Ebooks   *usecases.EbookService

	// Orbit configures the per-connection render loop used by /ws when no
	// broker is available, and supplies the default camera for /v1/globe/frame.
	Orbit usecases.OrbiterConfig

	// AdminToken guards library writes. Empty disables them.
	AdminToken string

	NATS  *nats.Conn
	DB    *postgres.DB
	Cache *valkey.Cache
}
