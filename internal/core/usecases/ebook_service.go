package usecases

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/core/ports"
	"github.com/samirrijal/globefolio/internal/pkg/metrics"
)

const ebookCachePrefix = "ebooks:"

// EbookService handles ebook library business logic.
type EbookService struct {
	ebooks ports.EbookRepository
	cache  ports.CacheService
}

// NewEbookService creates a new EbookService.
func NewEbookService(ebooks ports.EbookRepository, cache ports.CacheService) *EbookService {
	return &EbookService{ebooks: ebooks, cache: cache}
}

// List returns all ebooks without content.
func (s *EbookService) List(ctx context.Context) ([]domain.Ebook, error) {
	ctx, span := tracer.Start(ctx, "EbookService.List")
	defer span.End()

	var out []domain.Ebook
	if cacheGet(ctx, s.cache, ebookCachePrefix+"all", "ebooks.list", &out) {
		return out, nil
	}

	out, err := s.ebooks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ebooks: %w", err)
	}
	cacheSet(ctx, s.cache, ebookCachePrefix+"all", out, 300)
	return out, nil
}

// Search matches title, author, description and category. An empty query
// returns every ebook.
func (s *EbookService) Search(ctx context.Context, query string, limit int) ([]domain.Ebook, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	ctx, span := tracer.Start(ctx, "EbookService.Search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))
	metrics.LibrarySearches.WithLabelValues("ebook").Inc()

	cacheKey := fmt.Sprintf("%ssearch:%s:%d", ebookCachePrefix, strings.ToLower(query), limit)
	var out []domain.Ebook
	if cacheGet(ctx, s.cache, cacheKey, "ebooks.search", &out) {
		return out, nil
	}

	out, err := s.ebooks.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search ebooks: %w", err)
	}
	cacheSet(ctx, s.cache, cacheKey, out, 300)
	return out, nil
}

// GetByID returns one ebook including its markdown content.
func (s *EbookService) GetByID(ctx context.Context, id string) (*domain.Ebook, error) {
	ctx, span := tracer.Start(ctx, "EbookService.GetByID")
	defer span.End()

	cacheKey := ebookCachePrefix + "id:" + id
	var e domain.Ebook
	if cacheGet(ctx, s.cache, cacheKey, "ebooks.get", &e) {
		return &e, nil
	}

	found, err := s.ebooks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if found.ReadingTime <= 0 {
		found.ReadingTime = ReadingTime(found.Content)
	}
	cacheSet(ctx, s.cache, cacheKey, found, 600)
	return found, nil
}

// Store persists an ebook, filling in the reading time when absent.
func (s *EbookService) Store(ctx context.Context, e *domain.Ebook) error {
	if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: ebook id and title are required", domain.ErrValidation)
	}
	if e.ReadingTime <= 0 {
		e.ReadingTime = ReadingTime(e.Content)
	}
	if err := s.ebooks.Upsert(ctx, e); err != nil {
		return fmt.Errorf("upsert ebook %s: %w", e.ID, err)
	}
	return s.InvalidateCache(ctx)
}

// InvalidateCache drops every cached ebook result.
func (s *EbookService) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DeletePrefix(ctx, ebookCachePrefix)
}
