package ports

import (
	"context"

	"github.com/samirrijal/globefolio/internal/core/domain"
)

// MarkerCatalog supplies the fixed marker list. It is read once at startup.
type MarkerCatalog interface {
	Load(ctx context.Context) ([]domain.LabeledMarker, error)
}

// PodcastRepository persists podcast episodes.
type PodcastRepository interface {
	Upsert(ctx context.Context, p *domain.Podcast) error
	UpsertBatch(ctx context.Context, ps []domain.Podcast) error
	GetByID(ctx context.Context, id string) (*domain.Podcast, error)
	List(ctx context.Context) ([]domain.Podcast, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Podcast, error)
	Delete(ctx context.Context, id string) error
}

// EbookRepository persists ebooks.
type EbookRepository interface {
	Upsert(ctx context.Context, e *domain.Ebook) error
	UpsertBatch(ctx context.Context, es []domain.Ebook) error
	GetByID(ctx context.Context, id string) (*domain.Ebook, error)
	// List returns ebooks without their content.
	List(ctx context.Context) ([]domain.Ebook, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Ebook, error)
}
