package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidView       = errors.New("invalid view")
	ErrInvalidRadius     = errors.New("radius must be positive")
	ErrValidation        = errors.New("validation failed")
)

// Podcast is an episode in the podcast library.
type Podcast struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationSeconds int       `json:"duration"`
	PublishDate     time.Time `json:"publish_date"`
	Category        string    `json:"category"`
	FileSize        int64     `json:"file_size"`
	AudioURL        string    `json:"audio_url"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Ebook is a markdown document in the ebook library.
type Ebook struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Content     string    `json:"content,omitempty"` // markdown source
	Category    string    `json:"category"`
	PublishDate time.Time `json:"publish_date"`
	ReadingTime int       `json:"reading_time"` // minutes
	CreatedAt   time.Time `json:"created_at"`
}

// LibraryEvent announces a change to the podcast or ebook library.
type LibraryEvent struct {
	Kind   string    `json:"kind"`   // "podcast" | "ebook"
	Action string    `json:"action"` // "published" | "deleted"
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
}
