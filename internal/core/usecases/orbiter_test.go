package usecases_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/core/usecases"
	"github.com/samirrijal/globefolio/internal/pkg/metrics"
)

// --- Mock FramePublisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	frames []*domain.Frame
	err    error
}

func (p *recordingPublisher) PublishFrame(ctx context.Context, f *domain.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, f)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

func newTestOrbiter(t *testing.T, pub *recordingPublisher, cfg usecases.OrbiterConfig) *usecases.Orbiter {
	t.Helper()
	var o *usecases.Orbiter
	var err error
	if pub == nil {
		o, err = usecases.NewOrbiter(newTestGlobe(t, nil), nil, cfg)
	} else {
		o, err = usecases.NewOrbiter(newTestGlobe(t, nil), pub, cfg)
	}
	if err != nil {
		t.Fatalf("NewOrbiter: %v", err)
	}
	return o
}

var orbitCfg = usecases.OrbiterConfig{
	RotationSpeed: 0.1,
	FrameInterval: 5 * time.Millisecond,
	Camera:        domain.Vec3{Z: 5},
}

// --- Tests ---

func TestNewOrbiter_RejectsOriginCamera(t *testing.T) {
	_, err := usecases.NewOrbiter(newTestGlobe(t, nil), nil, usecases.OrbiterConfig{RotationSpeed: 0.1})
	if !errors.Is(err, domain.ErrInvalidView) {
		t.Errorf("expected ErrInvalidView, got %v", err)
	}
}

func TestOrbiter_StepAdvancesRotation(t *testing.T) {
	pub := &recordingPublisher{}
	o := newTestOrbiter(t, pub, orbitCfg)

	var f *domain.Frame
	var err error
	for i := 0; i < 3; i++ {
		if f, err = o.Step(context.Background(), time.Second); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if !near(f.Rotation, 0.3) {
		t.Errorf("expected rotation 0.3 after three 1s steps, got %v", f.Rotation)
	}
	if f.Sequence != 3 {
		t.Errorf("expected sequence 3, got %d", f.Sequence)
	}
	if pub.count() != 3 {
		t.Errorf("expected 3 published frames, got %d", pub.count())
	}
}

func TestOrbiter_StepWrapsRotation(t *testing.T) {
	o := newTestOrbiter(t, nil, usecases.OrbiterConfig{RotationSpeed: math.Pi, Camera: domain.Vec3{Z: 5}})

	f, err := o.Step(context.Background(), 3*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(f.Rotation-math.Pi) > 1e-9 {
		t.Errorf("expected 3π to wrap to π, got %v", f.Rotation)
	}
}

func TestOrbiter_Deterministic(t *testing.T) {
	a := newTestOrbiter(t, nil, orbitCfg)
	b := newTestOrbiter(t, nil, orbitCfg)

	for i := 0; i < 5; i++ {
		fa, _ := a.Step(context.Background(), 250*time.Millisecond)
		fb, _ := b.Step(context.Background(), 250*time.Millisecond)
		if diff := cmp.Diff(fa, fb); diff != "" {
			t.Fatalf("step %d differs (-a +b):\n%s", i, diff)
		}
	}
}

func TestOrbiter_SetView(t *testing.T) {
	o := newTestOrbiter(t, nil, orbitCfg)

	if err := o.SetView(domain.ViewState{Camera: domain.Vec3{Z: 50}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := o.View().Camera.Len(); !near(d, 10) {
		t.Errorf("expected zoom clamped to 10, got %v", d)
	}

	before := o.View()
	if err := o.SetView(domain.ViewState{}); !errors.Is(err, domain.ErrInvalidView) {
		t.Errorf("expected ErrInvalidView, got %v", err)
	}
	if o.View() != before {
		t.Error("rejected view replaced the camera")
	}

	// Looking from behind the globe shows the other hemisphere.
	if err := o.SetView(domain.ViewState{Camera: domain.Vec3{Z: -5}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, _ := o.Step(context.Background(), 0)
	if diff := cmp.Diff([]string{"tokyo", "sydney"}, visibleIDs(f)); diff != "" {
		t.Errorf("visible from -z (-want +got):\n%s", diff)
	}
}

func TestOrbiter_SetViewRejectsNonFinite(t *testing.T) {
	o := newTestOrbiter(t, nil, orbitCfg)
	before := o.View()

	for _, cam := range []domain.Vec3{{X: math.NaN(), Z: 5}, {Z: math.Inf(1)}} {
		if err := o.SetView(domain.ViewState{Camera: cam}); !errors.Is(err, domain.ErrInvalidView) {
			t.Errorf("camera %v: expected ErrInvalidView, got %v", cam, err)
		}
	}
	if o.View() != before {
		t.Error("rejected view replaced the camera")
	}
}

func TestOrbiter_ReportsFrameMetrics(t *testing.T) {
	metrics.VisibleMarkers.Set(-1)
	computed := testutil.ToFloat64(metrics.FramesComputed)

	// On-demand frames and a non-reporting loop leave the scene metrics alone.
	if _, err := newTestGlobe(t, nil).Frame(defaultView, 0); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if _, err := newTestOrbiter(t, nil, orbitCfg).Step(context.Background(), 0); err != nil {
		t.Fatalf("step: %v", err)
	}
	if got := testutil.ToFloat64(metrics.VisibleMarkers); got != -1 {
		t.Errorf("visible gauge moved without reporting: %v", got)
	}
	if got := testutil.ToFloat64(metrics.FramesComputed); got != computed {
		t.Errorf("frames counter moved without reporting: %v -> %v", computed, got)
	}

	cfg := orbitCfg
	cfg.ReportMetrics = true
	f, err := newTestOrbiter(t, nil, cfg).Step(context.Background(), 0)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if got := testutil.ToFloat64(metrics.VisibleMarkers); got != float64(f.Visible) {
		t.Errorf("expected visible gauge %d, got %v", f.Visible, got)
	}
	if got := testutil.ToFloat64(metrics.FramesComputed); got != computed+1 {
		t.Errorf("expected frames counter %v, got %v", computed+1, got)
	}
}

func TestOrbiter_PublishErrorStillReturnsFrame(t *testing.T) {
	boom := errors.New("broker down")
	o := newTestOrbiter(t, &recordingPublisher{err: boom}, orbitCfg)

	f, err := o.Step(context.Background(), time.Second)
	if !errors.Is(err, boom) {
		t.Errorf("expected publish error, got %v", err)
	}
	if f == nil {
		t.Error("expected the computed frame alongside the error")
	}
}

func TestOrbiter_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	pub := &recordingPublisher{}
	o := newTestOrbiter(t, pub, orbitCfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for pub.count() < 3 {
		select {
		case <-deadline:
			t.Fatal("orbiter produced no frames")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
