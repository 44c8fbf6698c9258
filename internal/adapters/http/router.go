package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/globefolio/internal/pkg/metrics"
)

// podcastSearchSunset is when GET /v1/podcasts/search goes away.
var podcastSearchSunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
		Next: func(c *fiber.Ctx) bool {
			// Long-lived frame streams are not counted.
			return c.Path() == "/ws"
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{Path: "/v1/podcasts/search", SunsetDate: podcastSearchSunset, Alternative: "/v1/podcasts?q="},
	}))

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")

	// Globe: pure computation, no timeout needed
	globe := v1.Group("/globe")
	globe.Get("/markers", ListMarkersHandler(deps))
	globe.Get("/markers/:id", GetMarkerHandler(deps))
	globe.Get("/markers/:id/nearest", NearestMarkersHandler(deps))
	globe.Get("/project", ProjectHandler(deps))
	globe.Get("/frame", FrameHandler(deps))
	globe.Get("/locate", LocateHandler(deps))

	// Library — 15s per-request timeout
	v1.Get("/podcasts", timeout.NewWithContext(ListPodcastsHandler(deps), 15*time.Second))
	v1.Get("/podcasts/search", timeout.NewWithContext(SearchPodcastsHandler(deps), 15*time.Second))
	v1.Get("/podcasts/:id", timeout.NewWithContext(GetPodcastHandler(deps), 15*time.Second))
	v1.Post("/podcasts", AdminMiddleware(deps.AdminToken), timeout.NewWithContext(PublishPodcastHandler(deps), 15*time.Second))
	v1.Delete("/podcasts/:id", AdminMiddleware(deps.AdminToken), timeout.NewWithContext(DeletePodcastHandler(deps), 15*time.Second))
	v1.Get("/ebooks", timeout.NewWithContext(ListEbooksHandler(deps), 15*time.Second))
	v1.Get("/ebooks/:id", timeout.NewWithContext(GetEbookHandler(deps), 15*time.Second))
	v1.Get("/ebooks/:id/content", timeout.NewWithContext(EbookContentHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}
