package config

import (
	"math"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/core/usecases"
	"github.com/samirrijal/globefolio/internal/pkg/geospatial"
)

// Camera is the initial camera position.
func (g GlobeConfig) Camera() domain.Vec3 {
	return domain.Vec3{X: g.CameraX, Y: g.CameraY, Z: g.CameraZ}
}

// OrbitLimits converts the zoom and pole settings into orbit limits.
func (g GlobeConfig) OrbitLimits() geospatial.OrbitLimits {
	return geospatial.OrbitLimits{
		MinDistance: g.MinDistance,
		MaxDistance: g.MaxDistance,
		MinPolar:    g.PolarMargin,
		MaxPolar:    math.Pi - g.PolarMargin,
	}
}

// Scene returns the globe geometry the projection service runs with.
func (g GlobeConfig) Scene() usecases.GlobeConfig {
	return usecases.GlobeConfig{
		GlobeRadius:  g.Radius,
		MarkerRadius: g.MarkerRadius,
		Limits:       g.OrbitLimits(),
	}
}

// Orbiter returns the render loop settings.
func (g GlobeConfig) Orbiter() usecases.OrbiterConfig {
	return usecases.OrbiterConfig{
		RotationSpeed: g.RotationSpeed,
		FrameInterval: g.FrameInterval,
		Camera:        g.Camera(),
	}
}
