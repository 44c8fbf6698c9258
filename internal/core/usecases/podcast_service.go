package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/core/ports"
	"github.com/samirrijal/globefolio/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/globefolio/internal/core/usecases")

const podcastCachePrefix = "podcasts:"

// PodcastService handles podcast library business logic.
type PodcastService struct {
	podcasts ports.PodcastRepository
	cache    ports.CacheService
	events   ports.EventPublisher
	launcher ports.PublishLauncher
	media    MediaURLs
}

// NewPodcastService creates a new PodcastService. cache and events may be nil.
func NewPodcastService(podcasts ports.PodcastRepository, cache ports.CacheService, events ports.EventPublisher, media MediaURLs) *PodcastService {
	return &PodcastService{podcasts: podcasts, cache: cache, events: events, media: media}
}

// WithLauncher routes Publish through a durable pipeline.
func (s *PodcastService) WithLauncher(l ports.PublishLauncher) *PodcastService {
	s.launcher = l
	return s
}

// List returns every episode, newest first.
func (s *PodcastService) List(ctx context.Context) ([]domain.Podcast, error) {
	ctx, span := tracer.Start(ctx, "PodcastService.List")
	defer span.End()

	var out []domain.Podcast
	if s.cacheGet(ctx, podcastCachePrefix+"all", "podcasts.list", &out) {
		return out, nil
	}

	out, err := s.podcasts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list podcasts: %w", err)
	}
	s.decorate(out)
	s.cacheSet(ctx, podcastCachePrefix+"all", out, 300)
	return out, nil
}

// Search matches query case-insensitively against title, description and
// category. An empty query returns the whole library.
func (s *PodcastService) Search(ctx context.Context, query string, limit int) ([]domain.Podcast, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	ctx, span := tracer.Start(ctx, "PodcastService.Search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query), attribute.Int("limit", limit))
	metrics.LibrarySearches.WithLabelValues("podcast").Inc()

	cacheKey := fmt.Sprintf("%ssearch:%s:%d", podcastCachePrefix, strings.ToLower(query), limit)
	var out []domain.Podcast
	if s.cacheGet(ctx, cacheKey, "podcasts.search", &out) {
		return out, nil
	}

	out, err := s.podcasts.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search podcasts: %w", err)
	}
	s.decorate(out)
	s.cacheSet(ctx, cacheKey, out, 300)
	return out, nil
}

// GetByID returns a single episode.
func (s *PodcastService) GetByID(ctx context.Context, id string) (*domain.Podcast, error) {
	ctx, span := tracer.Start(ctx, "PodcastService.GetByID")
	defer span.End()

	cacheKey := podcastCachePrefix + "id:" + id
	var p domain.Podcast
	if s.cacheGet(ctx, cacheKey, "podcasts.get", &p) {
		return &p, nil
	}

	found, err := s.podcasts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorateOne(found)
	s.cacheSet(ctx, cacheKey, found, 600)
	return found, nil
}

// Publish validates an episode and stores it. With a launcher configured the
// store/invalidate/announce steps run as a durable workflow and the returned
// string is its id; otherwise they run inline and the id is empty.
func (s *PodcastService) Publish(ctx context.Context, p *domain.Podcast) (string, error) {
	if err := validatePodcast(p); err != nil {
		return "", err
	}
	s.decorateOne(p)

	if s.launcher != nil {
		return s.launcher.StartPublish(ctx, p)
	}

	if err := s.Store(ctx, p); err != nil {
		return "", err
	}
	s.settle(ctx, p.ID, "published")
	return "", nil
}

// Store persists an episode.
func (s *PodcastService) Store(ctx context.Context, p *domain.Podcast) error {
	if err := s.podcasts.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert podcast %s: %w", p.ID, err)
	}
	return nil
}

// Delete removes an episode, drops cached results and announces the removal.
// Deleting a missing episode is not an error.
func (s *PodcastService) Delete(ctx context.Context, id string) error {
	if err := s.podcasts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete podcast %s: %w", id, err)
	}
	s.settle(ctx, id, "deleted")
	return nil
}

// settle runs the follow-up steps of an inline change. The change itself is
// already stored, so failures here are logged and not returned.
func (s *PodcastService) settle(ctx context.Context, id, action string) {
	if err := s.InvalidateCache(ctx); err != nil {
		slog.WarnContext(ctx, "podcast cache invalidation failed", "id", id, "action", action, "error", err)
	}
	if err := s.Announce(ctx, id, action); err != nil {
		slog.WarnContext(ctx, "podcast announce failed", "id", id, "action", action, "error", err)
	}
}

// InvalidateCache drops every cached podcast result.
func (s *PodcastService) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DeletePrefix(ctx, podcastCachePrefix)
}

// Announce broadcasts a library event for an episode.
func (s *PodcastService) Announce(ctx context.Context, id, action string) error {
	if s.events == nil {
		return nil
	}
	return s.events.PublishLibraryEvent(ctx, &domain.LibraryEvent{
		Kind:   "podcast",
		Action: action,
		ID:     id,
		Time:   time.Now().UTC(),
	})
}

func validatePodcast(p *domain.Podcast) error {
	if p == nil {
		return fmt.Errorf("%w: podcast is required", domain.ErrValidation)
	}
	var errs []error
	if strings.TrimSpace(p.ID) == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if strings.TrimSpace(p.Title) == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if p.DurationSeconds < 0 {
		errs = append(errs, errors.New("duration must not be negative"))
	}
	if p.FileSize < 0 {
		errs = append(errs, errors.New("file_size must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrValidation, errors.Join(errs...))
	}
	return nil
}

func (s *PodcastService) decorate(ps []domain.Podcast) {
	for i := range ps {
		s.decorateOne(&ps[i])
	}
}

func (s *PodcastService) decorateOne(p *domain.Podcast) {
	if p.AudioURL == "" && s.media.BucketURL != "" {
		p.AudioURL = s.media.Audio(p.ID)
	}
	if p.ThumbnailURL == "" && s.media.BucketURL != "" {
		p.ThumbnailURL = s.media.Thumbnail(p.ID)
	}
}

func (s *PodcastService) cacheGet(ctx context.Context, key, op string, dst any) bool {
	return cacheGet(ctx, s.cache, key, op, dst)
}

func (s *PodcastService) cacheSet(ctx context.Context, key string, v any, ttl int) {
	cacheSet(ctx, s.cache, key, v, ttl)
}

func cacheGet(ctx context.Context, cache ports.CacheService, key, op string, dst any) bool {
	if cache == nil {
		return false
	}
	data, err := cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues(op).Inc()
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		metrics.CacheMisses.WithLabelValues(op).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(op).Inc()
	return true
}

func cacheSet(ctx context.Context, cache ports.CacheService, key string, v any, ttl int) {
	if cache == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = cache.Set(ctx, key, data, ttl)
	}
}
