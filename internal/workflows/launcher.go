package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/pkg/metrics"
)

// Launcher implements ports.PublishLauncher by starting PublishEpisodeWorkflow.
type Launcher struct {
	client    client.Client
	taskQueue string
}

// NewLauncher creates a launcher submitting to taskQueue.
func NewLauncher(c client.Client, taskQueue string) *Launcher {
	return &Launcher{client: c, taskQueue: taskQueue}
}

// StartPublish starts the workflow and returns its id without waiting for it.
func (l *Launcher) StartPublish(ctx context.Context, p *domain.Podcast) (string, error) {
	opts := client.StartWorkflowOptions{
		ID:                       WorkflowID(p.ID),
		TaskQueue:                l.taskQueue,
		WorkflowExecutionTimeout: 10 * time.Minute,
	}
	run, err := l.client.ExecuteWorkflow(ctx, opts, PublishEpisodeWorkflow, PublishInput{Podcast: *p})
	if err != nil {
		metrics.PublishWorkflows.WithLabelValues("start_failed").Inc()
		return "", fmt.Errorf("start publish workflow: %w", err)
	}
	metrics.PublishWorkflows.WithLabelValues("started").Inc()
	return run.GetID(), nil
}

// WorkflowID names a publish run for an episode.
func WorkflowID(podcastID string) string {
	return "publish-" + podcastID + "-" + uuid.NewString()
}
