package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/globefolio/internal/core/domain"
)

// EbookRepo implements ports.EbookRepository with pgx.
type EbookRepo struct {
	db *DB
}

// NewEbookRepo creates a new EbookRepo.
func NewEbookRepo(db *DB) *EbookRepo {
	return &EbookRepo{db: db}
}

const upsertEbookSQL = `
	INSERT INTO ebooks (id, title, author, description, content, category,
	                    publish_date, reading_time)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE
	SET title = EXCLUDED.title, author = EXCLUDED.author,
	    description = EXCLUDED.description, content = EXCLUDED.content,
	    category = EXCLUDED.category, publish_date = EXCLUDED.publish_date,
	    reading_time = EXCLUDED.reading_time
`

// summaryCols leaves out the markdown body.
const summaryCols = `
	SELECT id, title, author, description, category, publish_date, reading_time, created_at
	FROM ebooks`

// Upsert inserts or updates a single ebook.
func (r *EbookRepo) Upsert(ctx context.Context, e *domain.Ebook) error {
	_, err := r.db.Pool.Exec(ctx, upsertEbookSQL,
		e.ID, e.Title, e.Author, e.Description, e.Content, e.Category,
		e.PublishDate, e.ReadingTime)
	return err
}

// UpsertBatch inserts many ebooks using pgx.Batch.
func (r *EbookRepo) UpsertBatch(ctx context.Context, es []domain.Ebook) error {
	batch := &pgx.Batch{}
	for _, e := range es {
		batch.Queue(upsertEbookSQL,
			e.ID, e.Title, e.Author, e.Description, e.Content, e.Category,
			e.PublishDate, e.ReadingTime)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range es {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns an ebook with its content.
func (r *EbookRepo) GetByID(ctx context.Context, id string) (*domain.Ebook, error) {
	var e domain.Ebook
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, title, author, description, content, category,
		       publish_date, reading_time, created_at
		FROM ebooks WHERE id = $1
	`, id).Scan(
		&e.ID, &e.Title, &e.Author, &e.Description, &e.Content, &e.Category,
		&e.PublishDate, &e.ReadingTime, &e.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "ebook", id)
	}
	return &e, nil
}

// List returns all ebooks ordered by title, without content.
func (r *EbookRepo) List(ctx context.Context) ([]domain.Ebook, error) {
	rows, err := r.db.Pool.Query(ctx, summaryCols+` ORDER BY title`)
	if err != nil {
		return nil, err
	}
	return collectEbooks(rows)
}

// Search matches title, author, description and category.
func (r *EbookRepo) Search(ctx context.Context, query string, limit int) ([]domain.Ebook, error) {
	rows, err := r.db.Pool.Query(ctx, summaryCols+`
		WHERE title ILIKE $1 OR author ILIKE $1 OR description ILIKE $1 OR category ILIKE $1
		ORDER BY title
		LIMIT $2
	`, containsPattern(query), limit)
	if err != nil {
		return nil, err
	}
	return collectEbooks(rows)
}

func collectEbooks(rows pgx.Rows) ([]domain.Ebook, error) {
	defer rows.Close()

	var out []domain.Ebook
	for rows.Next() {
		var e domain.Ebook
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Author, &e.Description, &e.Category,
			&e.PublishDate, &e.ReadingTime, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
