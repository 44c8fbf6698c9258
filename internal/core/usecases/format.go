package usecases

import (
	"fmt"
	"strings"
)

const wordsPerMinute = 200

// FormatDuration renders an episode length as "1h 5m" or "45m".
func FormatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatFileSize renders a byte count in megabytes with one decimal.
func FormatFileSize(bytes int64) string {
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}

// FormatClock renders a player position as "h:mm:ss" or "m:ss".
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ReadingTime estimates minutes to read markdown content. Never below 1.
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// MediaURLs builds public object URLs under the media bucket.
type MediaURLs struct {
	BucketURL string
}

func (m MediaURLs) object(path string) string {
	return strings.TrimRight(m.BucketURL, "/") + "/" + path
}

// Audio returns the episode audio URL.
func (m MediaURLs) Audio(podcastID string) string {
	return m.object("podcasts/" + podcastID + ".mp3")
}

// Thumbnail returns the episode cover URL.
func (m MediaURLs) Thumbnail(podcastID string) string {
	return m.object("thumbnails/" + podcastID + ".jpg")
}
