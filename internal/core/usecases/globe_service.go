package usecases

import (
	"context"
	"fmt"
	"math"
	"net"
	"sort"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/core/ports"
	"github.com/samirrijal/globefolio/internal/pkg/geospatial"
)

// YouAreHereID is the id of the transient marker returned by Locate.
const YouAreHereID = "you-are-here"

// GlobeConfig describes the globe scene.
type GlobeConfig struct {
	GlobeRadius  float64
	MarkerRadius float64
	Limits       geospatial.OrbitLimits
}

// GlobeService projects the fixed marker list onto the globe.
type GlobeService struct {
	cfg     GlobeConfig
	markers []domain.LabeledMarker
	index   map[string]int
	locator ports.Locator
}

// NewGlobeService validates the marker list and builds the service.
// locator may be nil.
func NewGlobeService(markers []domain.LabeledMarker, cfg GlobeConfig, locator ports.Locator) (*GlobeService, error) {
	if cfg.GlobeRadius <= 0 || cfg.MarkerRadius <= 0 {
		return nil, domain.ErrInvalidRadius
	}

	index := make(map[string]int, len(markers))
	owned := make([]domain.LabeledMarker, len(markers))
	for i, m := range markers {
		if m.ID == "" {
			return nil, fmt.Errorf("marker %d: id is required", i)
		}
		if _, dup := index[m.ID]; dup {
			return nil, fmt.Errorf("marker %q: duplicate id", m.ID)
		}
		if !m.Point.Valid() {
			return nil, fmt.Errorf("marker %q: %w", m.ID, domain.ErrInvalidCoordinate)
		}
		index[m.ID] = i
		owned[i] = m
	}

	return &GlobeService{cfg: cfg, markers: owned, index: index, locator: locator}, nil
}

// NewGlobeFromCatalog loads the marker list from catalog and builds the service.
func NewGlobeFromCatalog(ctx context.Context, catalog ports.MarkerCatalog, cfg GlobeConfig, locator ports.Locator) (*GlobeService, error) {
	markers, err := catalog.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load markers: %w", err)
	}
	return NewGlobeService(markers, cfg, locator)
}

// Config returns the scene configuration.
func (s *GlobeService) Config() GlobeConfig {
	return s.cfg
}

// Markers returns a copy of the marker list in catalog order.
func (s *GlobeService) Markers() []domain.LabeledMarker {
	out := make([]domain.LabeledMarker, len(s.markers))
	copy(out, s.markers)
	return out
}

// Marker returns a single marker by id.
func (s *GlobeService) Marker(id string) (*domain.LabeledMarker, error) {
	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("marker %q: %w", id, domain.ErrNotFound)
	}
	m := s.markers[i]
	return &m, nil
}

// Project validates a coordinate and maps it onto a sphere of the given radius.
// A radius of zero selects the marker radius.
func (s *GlobeService) Project(lat, lon, radius float64) (domain.Vec3, error) {
	if !(domain.GeoPoint{Lat: lat, Lon: lon}).Valid() {
		return domain.Vec3{}, fmt.Errorf("lat=%v lon=%v: %w", lat, lon, domain.ErrInvalidCoordinate)
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) {
		return domain.Vec3{}, fmt.Errorf("radius=%v: %w", radius, domain.ErrInvalidRadius)
	}
	if radius == 0 {
		radius = s.cfg.MarkerRadius
	}
	if radius < 0 {
		return domain.Vec3{}, domain.ErrInvalidRadius
	}
	return geospatial.Project(lat, lon, radius), nil
}

// ClampView applies the orbit limits to a camera position.
func (s *GlobeService) ClampView(view domain.ViewState) (domain.ViewState, error) {
	if !view.Camera.IsFinite() {
		return view, fmt.Errorf("camera %v: %w", view.Camera, domain.ErrInvalidView)
	}
	if view.Camera.IsZero() {
		return view, fmt.Errorf("camera at origin: %w", domain.ErrInvalidView)
	}
	return domain.ViewState{Camera: geospatial.ClampOrbit(view.Camera, s.cfg.Limits)}, nil
}

// Frame places every marker for the given camera and globe rotation, and
// decides which labels are shown.
func (s *GlobeService) Frame(view domain.ViewState, rotation float64) (*domain.Frame, error) {
	if math.IsNaN(rotation) || math.IsInf(rotation, 0) {
		return nil, fmt.Errorf("rotation=%v: %w", rotation, domain.ErrInvalidView)
	}
	view, err := s.ClampView(view)
	if err != nil {
		return nil, err
	}

	f := &domain.Frame{
		Rotation:   geospatial.WrapAngle(rotation),
		Camera:     view.Camera,
		Placements: make([]domain.MarkerPlacement, len(s.markers)),
	}
	for i, m := range s.markers {
		pos := geospatial.RotateY(geospatial.ProjectPoint(m.Point, s.cfg.MarkerRadius), f.Rotation)
		facing := geospatial.IsFrontFacing(pos, view.Camera)
		if facing {
			f.Visible++
		}
		f.Placements[i] = domain.MarkerPlacement{Marker: m, Position: pos, FrontFacing: facing}
	}

	return f, nil
}

// Nearest returns the other markers ordered by great-circle distance from id.
func (s *GlobeService) Nearest(id string, limit int) ([]domain.NearbyMarker, error) {
	origin, err := s.Marker(id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > len(s.markers) {
		limit = len(s.markers)
	}

	out := make([]domain.NearbyMarker, 0, len(s.markers))
	for _, m := range s.markers {
		if m.ID == origin.ID {
			continue
		}
		out = append(out, domain.NearbyMarker{
			Marker:     m,
			DistanceKm: geospatial.Haversine(origin.Point, m.Point),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Locate returns a transient marker for the caller's IP address and its
// projected position.
func (s *GlobeService) Locate(ctx context.Context, ip net.IP) (*domain.MarkerPlacement, error) {
	if s.locator == nil {
		return nil, fmt.Errorf("geoip disabled: %w", domain.ErrNotFound)
	}
	if ip == nil {
		return nil, fmt.Errorf("no client address: %w", domain.ErrNotFound)
	}

	point, label, err := s.locator.Locate(ip)
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", ip, err)
	}
	if label == "" {
		label = "You are here"
	}

	m := domain.LabeledMarker{ID: YouAreHereID, Point: point, Label: label, Color: "#FFD600"}
	return &domain.MarkerPlacement{
		Marker:      m,
		Position:    geospatial.ProjectPoint(point, s.cfg.MarkerRadius),
		FrontFacing: true,
	}, nil
}
