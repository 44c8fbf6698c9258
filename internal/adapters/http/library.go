package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/core/usecases"
)

const maxQueryLen = 200

// PodcastView adds display fields to an episode.
type PodcastView struct {
	domain.Podcast
	DurationText string `json:"duration_text"`
	FileSizeText string `json:"file_size_text"`
}

func podcastViews(ps []domain.Podcast) []PodcastView {
	out := make([]PodcastView, len(ps))
	for i, p := range ps {
		out[i] = podcastView(p)
	}
	return out
}

func podcastView(p domain.Podcast) PodcastView {
	return PodcastView{
		Podcast:      p,
		DurationText: usecases.FormatDuration(p.DurationSeconds),
		FileSizeText: usecases.FormatFileSize(p.FileSize),
	}
}

// ListPodcastsHandler lists episodes, filtered by ?q when present.
func ListPodcastsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("q"))
		if len(query) > maxQueryLen {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		var (
			podcasts []domain.Podcast
			err      error
		)
		if query != "" {
			podcasts, err = deps.Podcasts.Search(c.UserContext(), query, 100)
		} else {
			podcasts, err = deps.Podcasts.List(c.UserContext())
		}
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(paginate(c, podcastViews(podcasts), 20, 100))
	}
}

// SearchPodcastsHandler is the older search endpoint. It requires ?q.
func SearchPodcastsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > maxQueryLen {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		limit := c.QueryInt("limit", 20)

		podcasts, err := deps.Podcasts.Search(c.UserContext(), query, limit)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(podcastViews(podcasts))
	}
}

// GetPodcastHandler returns a single episode.
func GetPodcastHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := deps.Podcasts.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(podcastView(*p))
	}
}

// PublishPodcastHandler stores a new episode. When the publish workflow is
// enabled the response is 202 with the workflow id.
func PublishPodcastHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p domain.Podcast
		if err := c.BodyParser(&p); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		workflowID, err := deps.Podcasts.Publish(c.UserContext(), &p)
		if err != nil {
			return errFromDomain(c, err)
		}

		if workflowID != "" {
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
				"id":          p.ID,
				"workflow_id": workflowID,
			})
		}
		return c.Status(fiber.StatusCreated).JSON(podcastView(p))
	}
}

// DeletePodcastHandler removes an episode.
func DeletePodcastHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Podcasts.Delete(c.UserContext(), c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListEbooksHandler lists ebooks without content, filtered by ?q when present.
func ListEbooksHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("q"))
		if len(query) > maxQueryLen {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		var (
			ebooks []domain.Ebook
			err    error
		)
		if query != "" {
			ebooks, err = deps.Ebooks.Search(c.UserContext(), query, 100)
		} else {
			ebooks, err = deps.Ebooks.List(c.UserContext())
		}
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(paginate(c, ebooks, 20, 100))
	}
}

// GetEbookHandler returns ebook metadata.
func GetEbookHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := deps.Ebooks.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		meta := *e
		meta.Content = ""
		return c.JSON(meta)
	}
}

// EbookContentHandler returns the raw markdown of an ebook.
func EbookContentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := deps.Ebooks.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
		return c.SendString(e.Content)
	}
}
