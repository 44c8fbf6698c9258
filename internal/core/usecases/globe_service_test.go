package usecases_test

import (
	"context"
	"errors"
	"math"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/core/ports"
	"github.com/samirrijal/globefolio/internal/core/usecases"
	"github.com/samirrijal/globefolio/internal/pkg/geospatial"
)

// --- Fixtures ---

var testMarkers = []domain.LabeledMarker{
	{ID: "nyc", Label: "New York", Point: domain.GeoPoint{Lat: 40.7128, Lon: -74.0060}},
	{ID: "london", Label: "London", Point: domain.GeoPoint{Lat: 51.5074, Lon: -0.1278}},
	{ID: "tokyo", Label: "Tokyo", Point: domain.GeoPoint{Lat: 35.6762, Lon: 139.6503}},
	{ID: "sydney", Label: "Sydney", Point: domain.GeoPoint{Lat: -33.8688, Lon: 151.2093}},
}

var testScene = usecases.GlobeConfig{
	GlobeRadius:  2,
	MarkerRadius: 2.1,
	Limits:       geospatial.DefaultOrbitLimits(),
}

var defaultView = domain.ViewState{Camera: domain.Vec3{Z: 5}}

func newTestGlobe(t *testing.T, locator ports.Locator) *usecases.GlobeService {
	t.Helper()
	var svc *usecases.GlobeService
	var err error
	if locator == nil {
		svc, err = usecases.NewGlobeService(testMarkers, testScene, nil)
	} else {
		svc, err = usecases.NewGlobeService(testMarkers, testScene, locator)
	}
	if err != nil {
		t.Fatalf("NewGlobeService: %v", err)
	}
	return svc
}

func visibleIDs(f *domain.Frame) []string {
	var ids []string
	for _, p := range f.Placements {
		if p.FrontFacing {
			ids = append(ids, p.Marker.ID)
		}
	}
	return ids
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// --- Mock Locator / MarkerCatalog ---

type mockLocator struct {
	locateFn func(ip net.IP) (domain.GeoPoint, string, error)
}

func (m *mockLocator) Locate(ip net.IP) (domain.GeoPoint, string, error) {
	return m.locateFn(ip)
}

type catalogFunc func(ctx context.Context) ([]domain.LabeledMarker, error)

func (f catalogFunc) Load(ctx context.Context) ([]domain.LabeledMarker, error) { return f(ctx) }

// --- Tests ---

func TestNewGlobeService_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		markers []domain.LabeledMarker
		cfg     usecases.GlobeConfig
	}{
		{"missing id", []domain.LabeledMarker{{Label: "x"}}, testScene},
		{"duplicate id", []domain.LabeledMarker{{ID: "a"}, {ID: "a"}}, testScene},
		{"latitude out of range", []domain.LabeledMarker{{ID: "a", Point: domain.GeoPoint{Lat: 91}}}, testScene},
		{"longitude out of range", []domain.LabeledMarker{{ID: "a", Point: domain.GeoPoint{Lon: -181}}}, testScene},
		{"zero radius", testMarkers, usecases.GlobeConfig{MarkerRadius: 2.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := usecases.NewGlobeService(tt.markers, tt.cfg, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewGlobeFromCatalog(t *testing.T) {
	svc, err := usecases.NewGlobeFromCatalog(context.Background(), catalogFunc(func(context.Context) ([]domain.LabeledMarker, error) {
		return testMarkers[:2], nil
	}), testScene, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(svc.Markers()); got != 2 {
		t.Errorf("expected 2 markers, got %d", got)
	}

	boom := errors.New("boom")
	_, err = usecases.NewGlobeFromCatalog(context.Background(), catalogFunc(func(context.Context) ([]domain.LabeledMarker, error) {
		return nil, boom
	}), testScene, nil)
	if !errors.Is(err, boom) {
		t.Errorf("expected catalog error to be wrapped, got %v", err)
	}
}

func TestGlobeService_MarkersReturnsCopy(t *testing.T) {
	svc := newTestGlobe(t, nil)
	ms := svc.Markers()
	ms[0].Label = "changed"

	m, err := svc.Marker("nyc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Label != "New York" {
		t.Errorf("marker list was mutated through the copy: %q", m.Label)
	}
	if _, err := svc.Marker("atlantis"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGlobeService_Project(t *testing.T) {
	svc := newTestGlobe(t, nil)

	north, err := svc.Project(90, 0, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !near(north.X, 0) || !near(north.Y, 2) || !near(north.Z, 0) {
		t.Errorf("north pole: got %+v", north)
	}

	def, err := svc.Project(40.7128, -74.0060, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !near(def.Len(), 2.1) {
		t.Errorf("radius 0 should select the marker radius, got length %v", def.Len())
	}

	if _, err := svc.Project(91, 0, 2); !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
	if _, err := svc.Project(math.NaN(), 0, 2); !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate for NaN, got %v", err)
	}
	if _, err := svc.Project(0, 0, -1); !errors.Is(err, domain.ErrInvalidRadius) {
		t.Errorf("expected ErrInvalidRadius, got %v", err)
	}
}

func TestGlobeService_Project_NonFinite(t *testing.T) {
	svc := newTestGlobe(t, nil)

	tests := []struct {
		name          string
		lat, lon, rad float64
		want          error
	}{
		{"NaN radius", 10, 10, math.NaN(), domain.ErrInvalidRadius},
		{"+Inf radius", 10, 10, math.Inf(1), domain.ErrInvalidRadius},
		{"-Inf radius", 10, 10, math.Inf(-1), domain.ErrInvalidRadius},
		{"Inf latitude", math.Inf(1), 10, 2, domain.ErrInvalidCoordinate},
		{"NaN longitude", 10, math.NaN(), 2, domain.ErrInvalidCoordinate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := svc.Project(tt.lat, tt.lon, tt.rad)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v (pos %+v)", tt.want, err, pos)
			}
		})
	}
}

func TestGlobeService_Frame_DefaultCamera(t *testing.T) {
	svc := newTestGlobe(t, nil)

	f, err := svc.Frame(defaultView, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"nyc"}, visibleIDs(f)); diff != "" {
		t.Errorf("visible markers (-want +got):\n%s", diff)
	}
	if f.Visible != 1 {
		t.Errorf("expected Visible=1, got %d", f.Visible)
	}
	for i, p := range f.Placements {
		if p.Marker.ID != testMarkers[i].ID {
			t.Errorf("placement %d: expected %s, got %s", i, testMarkers[i].ID, p.Marker.ID)
		}
		if !near(p.Position.Len(), 2.1) {
			t.Errorf("%s: expected marker radius 2.1, got %v", p.Marker.ID, p.Position.Len())
		}
	}
}

func TestGlobeService_Frame_HalfTurn(t *testing.T) {
	svc := newTestGlobe(t, nil)

	f, err := svc.Frame(defaultView, math.Pi)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"tokyo", "sydney"}, visibleIDs(f)); diff != "" {
		t.Errorf("visible markers after half a turn (-want +got):\n%s", diff)
	}
	if !near(f.Rotation, math.Pi) {
		t.Errorf("expected rotation π, got %v", f.Rotation)
	}
}

func TestGlobeService_Frame_WrapsRotation(t *testing.T) {
	svc := newTestGlobe(t, nil)

	a, _ := svc.Frame(defaultView, 0.5)
	b, _ := svc.Frame(defaultView, 0.5+4*math.Pi)
	if !near(a.Rotation, b.Rotation) {
		t.Fatalf("rotation not wrapped: %v vs %v", a.Rotation, b.Rotation)
	}
	if diff := cmp.Diff(visibleIDs(a), visibleIDs(b)); diff != "" {
		t.Errorf("full turns changed visibility:\n%s", diff)
	}
}

func TestGlobeService_Frame_CameraRules(t *testing.T) {
	svc := newTestGlobe(t, nil)

	if _, err := svc.Frame(domain.ViewState{}, 0); !errors.Is(err, domain.ErrInvalidView) {
		t.Errorf("expected ErrInvalidView for camera at origin, got %v", err)
	}

	f, err := svc.Frame(domain.ViewState{Camera: domain.Vec3{Z: 50}}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !near(f.Camera.Len(), 10) {
		t.Errorf("expected camera clamped to distance 10, got %v", f.Camera.Len())
	}
}

func TestGlobeService_NonFiniteView(t *testing.T) {
	svc := newTestGlobe(t, nil)

	cameras := map[string]domain.Vec3{
		"NaN x":  {X: math.NaN(), Z: 5},
		"NaN z":  {Z: math.NaN()},
		"+Inf y": {Y: math.Inf(1), Z: 5},
		"-Inf z": {Z: math.Inf(-1)},
	}
	for name, cam := range cameras {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.ClampView(domain.ViewState{Camera: cam}); !errors.Is(err, domain.ErrInvalidView) {
				t.Errorf("ClampView: expected ErrInvalidView, got %v", err)
			}
			if _, err := svc.Frame(domain.ViewState{Camera: cam}, 0); !errors.Is(err, domain.ErrInvalidView) {
				t.Errorf("Frame: expected ErrInvalidView, got %v", err)
			}
		})
	}

	for _, rot := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := svc.Frame(defaultView, rot); !errors.Is(err, domain.ErrInvalidView) {
			t.Errorf("rotation %v: expected ErrInvalidView, got %v", rot, err)
		}
	}
}

func TestGlobeService_Nearest(t *testing.T) {
	svc := newTestGlobe(t, nil)

	got, err := svc.Nearest("nyc", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids []string
	for _, n := range got {
		ids = append(ids, n.Marker.ID)
	}
	if diff := cmp.Diff([]string{"london", "tokyo", "sydney"}, ids); diff != "" {
		t.Errorf("nearest order (-want +got):\n%s", diff)
	}
	if d := got[0].DistanceKm; d < 5500 || d > 5650 {
		t.Errorf("NYC-London distance out of range: %v", d)
	}

	limited, _ := svc.Nearest("nyc", 2)
	if len(limited) != 2 {
		t.Errorf("expected 2 results, got %d", len(limited))
	}

	if _, err := svc.Nearest("atlantis", 3); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGlobeService_Locate(t *testing.T) {
	ip := net.ParseIP("81.2.69.142")

	disabled := newTestGlobe(t, nil)
	if _, err := disabled.Locate(context.Background(), ip); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound without a locator, got %v", err)
	}

	svc := newTestGlobe(t, &mockLocator{locateFn: func(got net.IP) (domain.GeoPoint, string, error) {
		if !got.Equal(ip) {
			t.Errorf("unexpected ip %s", got)
		}
		return domain.GeoPoint{Lat: 51.5, Lon: -0.1}, "", nil
	}})
	p, err := svc.Locate(context.Background(), ip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Marker.ID != usecases.YouAreHereID || p.Marker.Label != "You are here" {
		t.Errorf("unexpected marker %+v", p.Marker)
	}
	if !near(p.Position.Len(), 2.1) {
		t.Errorf("expected marker radius, got %v", p.Position.Len())
	}

	failing := newTestGlobe(t, &mockLocator{locateFn: func(net.IP) (domain.GeoPoint, string, error) {
		return domain.GeoPoint{}, "", domain.ErrNotFound
	}})
	if _, err := failing.Locate(context.Background(), ip); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected locator error to be wrapped, got %v", err)
	}
}
