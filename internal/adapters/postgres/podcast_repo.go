package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/globefolio/internal/core/domain"
)

// PodcastRepo implements ports.PodcastRepository with pgx.
type PodcastRepo struct {
	db *DB
}

// NewPodcastRepo creates a new PodcastRepo.
func NewPodcastRepo(db *DB) *PodcastRepo {
	return &PodcastRepo{db: db}
}

const upsertPodcastSQL = `
	INSERT INTO podcasts (id, title, description, duration_seconds, publish_date,
	                      category, file_size, audio_url, thumbnail_url)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE
	SET title = EXCLUDED.title, description = EXCLUDED.description,
	    duration_seconds = EXCLUDED.duration_seconds, publish_date = EXCLUDED.publish_date,
	    category = EXCLUDED.category, file_size = EXCLUDED.file_size,
	    audio_url = EXCLUDED.audio_url, thumbnail_url = EXCLUDED.thumbnail_url
`

const selectPodcastCols = `
	SELECT id, title, description, duration_seconds, publish_date,
	       category, file_size, audio_url, thumbnail_url, created_at
	FROM podcasts`

// Upsert inserts or updates a single episode.
func (r *PodcastRepo) Upsert(ctx context.Context, p *domain.Podcast) error {
	_, err := r.db.Pool.Exec(ctx, upsertPodcastSQL,
		p.ID, p.Title, p.Description, p.DurationSeconds, p.PublishDate,
		p.Category, p.FileSize, p.AudioURL, p.ThumbnailURL)
	return err
}

// UpsertBatch inserts many episodes using pgx.Batch.
func (r *PodcastRepo) UpsertBatch(ctx context.Context, ps []domain.Podcast) error {
	batch := &pgx.Batch{}
	for _, p := range ps {
		batch.Queue(upsertPodcastSQL,
			p.ID, p.Title, p.Description, p.DurationSeconds, p.PublishDate,
			p.Category, p.FileSize, p.AudioURL, p.ThumbnailURL)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range ps {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns an episode by id.
func (r *PodcastRepo) GetByID(ctx context.Context, id string) (*domain.Podcast, error) {
	row := r.db.Pool.QueryRow(ctx, selectPodcastCols+` WHERE id = $1`, id)
	p, err := scanPodcast(row)
	if err != nil {
		return nil, notFound(err, "podcast", id)
	}
	return p, nil
}

// List returns every episode, newest first.
func (r *PodcastRepo) List(ctx context.Context) ([]domain.Podcast, error) {
	rows, err := r.db.Pool.Query(ctx, selectPodcastCols+` ORDER BY publish_date DESC, id`)
	if err != nil {
		return nil, err
	}
	return collectPodcasts(rows)
}

// Search performs a case-insensitive substring match on title, description
// and category.
func (r *PodcastRepo) Search(ctx context.Context, query string, limit int) ([]domain.Podcast, error) {
	rows, err := r.db.Pool.Query(ctx, selectPodcastCols+`
		WHERE title ILIKE $1 OR description ILIKE $1 OR category ILIKE $1
		ORDER BY publish_date DESC, id
		LIMIT $2
	`, containsPattern(query), limit)
	if err != nil {
		return nil, err
	}
	return collectPodcasts(rows)
}

// Delete removes an episode. Deleting a missing episode is not an error.
func (r *PodcastRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM podcasts WHERE id = $1`, id)
	return err
}

func scanPodcast(row pgx.Row) (*domain.Podcast, error) {
	var p domain.Podcast
	if err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.DurationSeconds, &p.PublishDate,
		&p.Category, &p.FileSize, &p.AudioURL, &p.ThumbnailURL, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPodcasts(rows pgx.Rows) ([]domain.Podcast, error) {
	defer rows.Close()

	var out []domain.Podcast
	for rows.Next() {
		p, err := scanPodcast(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
