package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/globefolio/internal/core/domain"
)

// PublishInput is the input for the publish workflow.
type PublishInput struct {
	Podcast domain.Podcast
}

// PublishEpisodeWorkflow stores an episode, invalidates cached listings and
// announces it. If the announcement cannot be delivered the episode is
// deleted again (saga compensation) so listeners never miss a stored episode.
func PublishEpisodeWorkflow(ctx workflow.Context, input PublishInput) error {
	logger := workflow.GetLogger(ctx)
	id := input.Podcast.ID
	logger.Info("Starting publish workflow", "podcast", id)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Store
	if err := workflow.ExecuteActivity(ctx, "StorePodcast", input.Podcast).Get(ctx, nil); err != nil {
		return err
	}

	// Step 2: Invalidate cache. Entries expire on their own, so a failure
	// here only delays visibility.
	if err := workflow.ExecuteActivity(ctx, "InvalidateCache").Get(ctx, nil); err != nil {
		logger.Warn("cache invalidation failed", "error", err)
	}

	// Step 3: Announce
	if err := workflow.ExecuteActivity(ctx, "AnnouncePodcast", id).Get(ctx, nil); err != nil {
		logger.Warn("announce failed, compensating", "error", err)
		// Compensate: delete the episode and drop anything cached meanwhile
		_ = workflow.ExecuteActivity(ctx, "DeletePodcast", id).Get(ctx, nil)
		_ = workflow.ExecuteActivity(ctx, "InvalidateCache").Get(ctx, nil)
		return err
	}

	logger.Info("Podcast published", "podcast", id)
	return nil
}
