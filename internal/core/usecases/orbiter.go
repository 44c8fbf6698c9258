package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/core/ports"
	"github.com/samirrijal/globefolio/internal/pkg/geospatial"
	"github.com/samirrijal/globefolio/internal/pkg/metrics"
)

// OrbiterConfig controls the render loop.
type OrbiterConfig struct {
	RotationSpeed float64 // radians per second
	FrameInterval time.Duration
	Camera        domain.Vec3
	// ReportMetrics exports frame counters and the visible-marker gauge.
	// Only the process that owns the scene should set it.
	ReportMetrics bool
}

// Orbiter is the render loop: it owns the view state and globe rotation,
// and emits one frame per tick.
type Orbiter struct {
	globe     *GlobeService
	publisher ports.FramePublisher
	speed     float64
	interval  time.Duration
	report    bool

	mu       sync.Mutex
	view     domain.ViewState
	rotation float64
	seq      uint64
}

// NewOrbiter creates a render loop. publisher may be nil.
func NewOrbiter(globe *GlobeService, publisher ports.FramePublisher, cfg OrbiterConfig) (*Orbiter, error) {
	o := &Orbiter{
		globe:     globe,
		publisher: publisher,
		speed:     cfg.RotationSpeed,
		interval:  cfg.FrameInterval,
		report:    cfg.ReportMetrics,
	}
	if o.interval <= 0 {
		o.interval = time.Second / 30
	}
	if err := o.SetView(domain.ViewState{Camera: cfg.Camera}); err != nil {
		return nil, err
	}
	return o, nil
}

// SetView replaces the camera position, clamped to the orbit limits.
func (o *Orbiter) SetView(v domain.ViewState) error {
	v, err := o.globe.ClampView(v)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.view = v
	o.mu.Unlock()
	return nil
}

// View returns the current camera state.
func (o *Orbiter) View() domain.ViewState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view
}

// Step advances the rotation by dt and computes and publishes one frame.
func (o *Orbiter) Step(ctx context.Context, dt time.Duration) (*domain.Frame, error) {
	o.mu.Lock()
	o.rotation = geospatial.WrapAngle(o.rotation + o.speed*dt.Seconds())
	o.seq++
	view, rotation, seq := o.view, o.rotation, o.seq
	o.mu.Unlock()

	f, err := o.globe.Frame(view, rotation)
	if err != nil {
		return nil, err
	}
	f.Sequence = seq
	if o.report {
		metrics.FramesComputed.Inc()
		metrics.VisibleMarkers.Set(float64(f.Visible))
	}

	if o.publisher != nil {
		if err := o.publisher.PublishFrame(ctx, f); err != nil {
			return f, err
		}
	}
	return f, nil
}

// Run ticks until ctx is cancelled.
func (o *Orbiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if _, err := o.Step(ctx, dt); err != nil {
				slog.Warn("frame publish failed", "error", err)
			}
		}
	}
}
