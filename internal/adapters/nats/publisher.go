package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/pkg/metrics"
)

const (
	// SubjectFrames carries every frame computed by the render loop.
	SubjectFrames = "globe.frame"
	// SubjectLibrary is the wildcard for library events: library.<kind>.<action>.
	SubjectLibrary = "library.>"
)

// Publisher implements ports.FramePublisher and ports.EventPublisher.
// Frames go over core NATS since a dropped frame is superseded by the next
// one; library events go through JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      "LIBRARY_EVENTS",
		Subjects:  []string{SubjectLibrary},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishFrame broadcasts a frame as JSON on SubjectFrames.
func (p *Publisher) PublishFrame(ctx context.Context, f *domain.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(SubjectFrames, data); err != nil {
		metrics.FramesPublished.WithLabelValues("error").Inc()
		return err
	}
	metrics.FramesPublished.WithLabelValues("ok").Inc()
	return nil
}

// PublishLibraryEvent stores a library event in JetStream.
func (p *Publisher) PublishLibraryEvent(ctx context.Context, ev *domain.LibraryEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(LibrarySubject(ev.Kind, ev.Action), data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// LibrarySubject returns the subject for a library event.
func LibrarySubject(kind, action string) string {
	return "library." + kind + "." + action
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
