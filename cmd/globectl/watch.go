package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/pkg/framecodec"
)

var (
	watchURL    string
	watchBinary bool
	watchCamera string
	watchCount  int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the live frame stream",
	Example: `  globectl watch --url ws://localhost:8080/ws
  globectl watch --binary --camera 0,3,4 --count 10`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchURL, "url", "ws://localhost:8080/ws", "WebSocket endpoint")
	watchCmd.Flags().BoolVar(&watchBinary, "binary", false, "Request compact binary frames")
	watchCmd.Flags().StringVar(&watchCamera, "camera", "", "Follow from this camera position (x,y,z)")
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "Stop after this many frames (0 = until interrupted)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	u, err := url.Parse(watchURL)
	if err != nil {
		return fmt.Errorf("url: %w", err)
	}
	if watchBinary {
		q := u.Query()
		q.Set("format", "binary")
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u, err)
	}
	defer conn.Close()

	if watchCamera != "" {
		cam, err := parseVec(watchCamera)
		if err != nil {
			return fmt.Errorf("camera: %w", err)
		}
		msg := map[string]any{"action": "view", "camera": cam}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("send view: %w", err)
		}
	}

	return watchFrames(cmd.Context(), conn, cmd.OutOrStdout(), watchCount)
}

// watchFrames prints one line per frame until ctx ends, the server closes
// the stream or limit frames have been read.
func watchFrames(ctx context.Context, conn *websocket.Conn, out io.Writer, limit int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for n := 0; limit <= 0 || n < limit; {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var f *domain.Frame
		switch typ {
		case websocket.BinaryMessage:
			if f, err = framecodec.Unmarshal(data); err != nil {
				return fmt.Errorf("decode frame: %w", err)
			}
		case websocket.TextMessage:
			f = &domain.Frame{}
			if err := json.Unmarshal(data, f); err != nil {
				return fmt.Errorf("decode frame: %w", err)
			}
			if f.Placements == nil {
				// Not a frame, e.g. an error reply.
				fmt.Fprintf(out, "server: %s\n", data)
				continue
			}
		default:
			continue
		}

		fmt.Fprintln(out, summarize(f))
		n++
	}
	return nil
}

func summarize(f *domain.Frame) string {
	var labels []string
	for _, p := range f.Placements {
		if p.FrontFacing {
			labels = append(labels, p.Marker.Label)
		}
	}
	return fmt.Sprintf("#%d rot=%.3f visible=%d [%s]", f.Sequence, f.Rotation, f.Visible, strings.Join(labels, ", "))
}
