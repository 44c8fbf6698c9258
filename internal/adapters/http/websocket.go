package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/globefolio/internal/adapters/nats"
	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/core/usecases"
	"github.com/samirrijal/globefolio/internal/pkg/framecodec"
	"github.com/samirrijal/globefolio/internal/pkg/metrics"
)

// wsMessage is sent from client to steer its view of the globe.
type wsMessage struct {
	Action string       `json:"action"` // "view" | "reset"
	Camera *domain.Vec3 `json:"camera,omitempty"`
}

// frameSink writes frames to one websocket client. It implements
// ports.FramePublisher so a per-connection Orbiter can drive it.
type frameSink struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	binary bool
}

func (s *frameSink) PublishFrame(_ context.Context, f *domain.Frame) error {
	if s.binary {
		return s.write(websocket.BinaryMessage, framecodec.Marshal(f))
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return s.write(websocket.TextMessage, data)
}

func (s *frameSink) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.write(websocket.TextMessage, data)
}

func (s *frameSink) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

// frameSource feeds frames to a sink and accepts viewpoint changes.
type frameSource interface {
	SetView(domain.ViewState) error
	Reset()
	Close()
}

// WebSocketHandler streams globe frames to connected clients.
//
// With a broker connection it relays the frames the orbiter publishes on
// globe.frame; a client that sends {"action":"view","camera":{...}} then gets
// those frames recomputed for its own camera. Without a broker each client
// gets its own render loop. ?format=binary selects protobuf-encoded frames.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		sink := &frameSink{conn: c, binary: c.Query("format") == "binary"}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var (
			src frameSource
			err error
		)
		if deps.NATS != nil {
			src, err = newRelaySource(deps.NATS, deps.Globe, sink)
		} else {
			src, err = newLocalSource(ctx, deps.Globe, deps.Orbit, sink)
		}
		if err != nil {
			slog.Error("ws frame source", "remote", remoteAddr, "error", err)
			_ = sink.writeJSON(map[string]string{"error": "frame stream unavailable"})
			return
		}
		defer src.Close()

		// Keep-alive ping
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := sink.write(websocket.PingMessage, nil); err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		// Read client messages for view changes
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = sink.writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			switch m.Action {
			case "view":
				if m.Camera == nil {
					_ = sink.writeJSON(map[string]string{"error": "camera is required"})
					continue
				}
				if err := src.SetView(domain.ViewState{Camera: *m.Camera}); err != nil {
					_ = sink.writeJSON(map[string]string{"error": err.Error()})
					continue
				}
				_ = sink.writeJSON(map[string]string{"status": "view updated"})
			case "reset":
				src.Reset()
				_ = sink.writeJSON(map[string]string{"status": "view reset"})
			default:
				_ = sink.writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}

// relaySource forwards broker frames, re-projecting them when the client
// has chosen its own camera.
type relaySource struct {
	globe *usecases.GlobeService
	sub   *nats.Subscription

	mu   sync.Mutex
	view *domain.ViewState
}

func newRelaySource(nc *nats.Conn, globe *usecases.GlobeService, sink *frameSink) (*relaySource, error) {
	r := &relaySource{globe: globe}
	sub, err := nc.Subscribe(natsadapter.SubjectFrames, func(msg *nats.Msg) {
		view := r.currentView()
		if view == nil && !sink.binary {
			_ = sink.write(websocket.TextMessage, msg.Data)
			return
		}

		var f domain.Frame
		if err := json.Unmarshal(msg.Data, &f); err != nil {
			return
		}
		out := &f
		if view != nil {
			recomputed, err := globe.Frame(*view, f.Rotation)
			if err != nil {
				return
			}
			recomputed.Sequence = f.Sequence
			out = recomputed
		}
		_ = sink.PublishFrame(context.Background(), out)
	})
	if err != nil {
		return nil, err
	}
	r.sub = sub
	return r, nil
}

func (r *relaySource) currentView() *domain.ViewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

func (r *relaySource) SetView(v domain.ViewState) error {
	v, err := r.globe.ClampView(v)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.view = &v
	r.mu.Unlock()
	return nil
}

func (r *relaySource) Reset() {
	r.mu.Lock()
	r.view = nil
	r.mu.Unlock()
}

func (r *relaySource) Close() {
	_ = r.sub.Unsubscribe()
}

// localSource runs a render loop for one client.
type localSource struct {
	orbiter *usecases.Orbiter
	initial domain.ViewState
	cancel  context.CancelFunc
	done    chan struct{}
}

func newLocalSource(ctx context.Context, globe *usecases.GlobeService, cfg usecases.OrbiterConfig, sink *frameSink) (*localSource, error) {
	o, err := usecases.NewOrbiter(globe, sink, cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	l := &localSource{orbiter: o, initial: o.View(), cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(l.done)
		_ = o.Run(ctx)
	}()
	return l, nil
}

func (l *localSource) SetView(v domain.ViewState) error {
	return l.orbiter.SetView(v)
}

func (l *localSource) Reset() {
	_ = l.orbiter.SetView(l.initial)
}

func (l *localSource) Close() {
	l.cancel()
	<-l.done
}
