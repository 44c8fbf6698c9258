package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/core/usecases"
)

// Manifest lists the library content to load. Ebook files are resolved
// relative to the manifest.
type Manifest struct {
	BucketURL string         `json:"bucket_url,omitempty"`
	Podcasts  []PodcastEntry `json:"podcasts"`
	Ebooks    []EbookEntry   `json:"ebooks"`
}

type PodcastEntry struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    int    `json:"duration"` // seconds
	PublishDate string `json:"publish_date"`
	Category    string `json:"category"`
	FileSize    int64  `json:"file_size"`
}

type EbookEntry struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Category    string `json:"category"`
	PublishDate string `json:"publish_date"`
	File        string `json:"file"`
}

// Library is a manifest resolved into domain values.
type Library struct {
	Podcasts []domain.Podcast
	Ebooks   []domain.Ebook
}

func loadManifest(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m.resolve(filepath.Dir(path))
}

func (m Manifest) resolve(baseDir string) (*Library, error) {
	media := usecases.MediaURLs{BucketURL: m.BucketURL}
	lib := &Library{
		Podcasts: make([]domain.Podcast, 0, len(m.Podcasts)),
		Ebooks:   make([]domain.Ebook, 0, len(m.Ebooks)),
	}
	var errs []error

	for i, e := range m.Podcasts {
		if strings.TrimSpace(e.Title) == "" {
			errs = append(errs, fmt.Errorf("podcasts[%d]: title is required", i))
			continue
		}
		published, err := parseDate(e.PublishDate)
		if err != nil {
			errs = append(errs, fmt.Errorf("podcasts[%d] %q: %w", i, e.Title, err))
			continue
		}
		p := domain.Podcast{
			ID:              idOrNew(e.ID),
			Title:           e.Title,
			Description:     e.Description,
			DurationSeconds: e.Duration,
			PublishDate:     published,
			Category:        e.Category,
			FileSize:        e.FileSize,
		}
		if m.BucketURL != "" {
			p.AudioURL = media.Audio(p.ID)
			p.ThumbnailURL = media.Thumbnail(p.ID)
		}
		lib.Podcasts = append(lib.Podcasts, p)
	}

	for i, e := range m.Ebooks {
		if strings.TrimSpace(e.Title) == "" {
			errs = append(errs, fmt.Errorf("ebooks[%d]: title is required", i))
			continue
		}
		published, err := parseDate(e.PublishDate)
		if err != nil {
			errs = append(errs, fmt.Errorf("ebooks[%d] %q: %w", i, e.Title, err))
			continue
		}
		var content string
		if e.File != "" {
			file := e.File
			if !filepath.IsAbs(file) {
				file = filepath.Join(baseDir, file)
			}
			b, err := os.ReadFile(file)
			if err != nil {
				errs = append(errs, fmt.Errorf("ebooks[%d] %q: %w", i, e.Title, err))
				continue
			}
			content = string(b)
		}
		lib.Ebooks = append(lib.Ebooks, domain.Ebook{
			ID:          idOrNew(e.ID),
			Title:       e.Title,
			Author:      e.Author,
			Description: e.Description,
			Content:     content,
			Category:    e.Category,
			PublishDate: published,
			ReadingTime: usecases.ReadingTime(content),
		})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return lib, nil
}

func idOrNew(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.NewString()
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
