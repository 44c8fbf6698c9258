package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/core/usecases"
	"github.com/samirrijal/globefolio/internal/pkg/config"
	"github.com/samirrijal/globefolio/internal/workflows"
)

var (
	publishAPI    string
	publishToken  string
	publishDirect bool
)

var publishCmd = &cobra.Command{
	Use:   "publish <episode.json>",
	Short: "Publish a podcast episode",
	Long: `Publish a podcast episode described by a JSON file ("-" reads stdin).

By default the episode is posted to the API. With --direct the publish
workflow is started on Temporal without going through the API.`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishAPI, "api", "http://localhost:8080", "API base URL")
	publishCmd.Flags().StringVar(&publishToken, "token", os.Getenv("GLOBEFOLIO_SERVER_ADMIN_TOKEN"), "Admin bearer token")
	publishCmd.Flags().BoolVar(&publishDirect, "direct", false, "Start the workflow on Temporal directly")
}

func runPublish(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	var p domain.Podcast
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return fmt.Errorf("decode episode: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if publishDirect {
		return publishViaTemporal(ctx, cmd.OutOrStdout(), &p)
	}
	return publishViaAPI(ctx, cmd.OutOrStdout(), &p)
}

func publishViaAPI(ctx context.Context, out io.Writer, p *domain.Podcast) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(publishAPI, "/")+"/v1/podcasts", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if publishToken != "" {
		req.Header.Set("Authorization", "Bearer "+publishToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("post episode: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusAccepted:
		var accepted struct {
			ID         string `json:"id"`
			WorkflowID string `json:"workflow_id"`
		}
		_ = json.Unmarshal(respBody, &accepted)
		fmt.Fprintf(out, "accepted %s (workflow %s)\n", accepted.ID, accepted.WorkflowID)
		return nil
	case http.StatusCreated:
		fmt.Fprintf(out, "published %s\n", p.ID)
		return nil
	default:
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("publish failed: %d %s: %s", resp.StatusCode, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("publish failed: HTTP %d", resp.StatusCode)
	}
}

func publishViaTemporal(ctx context.Context, out io.Writer, p *domain.Podcast) error {
	cfg, err := config.Load("globectl")
	if err != nil {
		return err
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	})
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	defer c.Close()

	// Only the validation and launch path of the service is used here.
	svc := usecases.NewPodcastService(nil, nil, nil, usecases.MediaURLs{BucketURL: cfg.Media.BucketURL}).
		WithLauncher(workflows.NewLauncher(c, cfg.Temporal.TaskQueue))

	id, err := svc.Publish(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "started workflow %s for %s\n", id, p.ID)
	return nil
}
