package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/pkg/metrics"
)

// Library is the part of the podcast service the publish activities drive.
// *usecases.PodcastService satisfies it.
type Library interface {
	Store(ctx context.Context, p *domain.Podcast) error
	Delete(ctx context.Context, id string) error
	InvalidateCache(ctx context.Context) error
	Announce(ctx context.Context, id, action string) error
}

// PublishActivities holds the activity implementations for the publish workflow.
type PublishActivities struct {
	Library Library
}

// StorePodcast upserts the episode.
func (a *PublishActivities) StorePodcast(ctx context.Context, p domain.Podcast) error {
	if err := a.Library.Store(ctx, &p); err != nil {
		return fmt.Errorf("store podcast: %w", err)
	}
	activity.GetLogger(ctx).Info("podcast stored", "id", p.ID)
	return nil
}

// InvalidateCache drops cached podcast listings.
func (a *PublishActivities) InvalidateCache(ctx context.Context) error {
	return a.Library.InvalidateCache(ctx)
}

// AnnouncePodcast publishes the library event for a stored episode.
func (a *PublishActivities) AnnouncePodcast(ctx context.Context, id string) error {
	if err := a.Library.Announce(ctx, id, "published"); err != nil {
		return fmt.Errorf("announce podcast %s: %w", id, err)
	}
	metrics.PublishWorkflows.WithLabelValues("published").Inc()
	return nil
}

// DeletePodcast removes an episode (saga compensation / rollback).
func (a *PublishActivities) DeletePodcast(ctx context.Context, id string) error {
	if err := a.Library.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete podcast %s: %w", id, err)
	}
	metrics.PublishWorkflows.WithLabelValues("rolled_back").Inc()
	activity.GetLogger(ctx).Warn("podcast removed (saga compensation)", "id", id)
	return nil
}
