package geospatial

import (
	"math"

	"github.com/samirrijal/globefolio/internal/core/domain"
)

// OrbitLimits bounds where the camera may sit around the globe.
type OrbitLimits struct {
	MinDistance float64
	MaxDistance float64
	MinPolar    float64 // radians from +y
	MaxPolar    float64
}

// DefaultOrbitLimits matches the globe page controls: zoom between 3 and 10
// units, and no closer than 30 degrees to either pole.
func DefaultOrbitLimits() OrbitLimits {
	return OrbitLimits{
		MinDistance: 3,
		MaxDistance: 10,
		MinPolar:    math.Pi / 6,
		MaxPolar:    math.Pi - math.Pi/6,
	}
}

// OrbitPosition returns the camera position for a spherical orbit.
// azimuth 0 looks down the +z axis.
func OrbitPosition(distance, polar, azimuth float64) domain.Vec3 {
	sinP, cosP := math.Sincos(polar)
	sinA, cosA := math.Sincos(azimuth)
	return domain.Vec3{
		X: distance * sinP * sinA,
		Y: distance * cosP,
		Z: distance * sinP * cosA,
	}
}

// OrbitAngles decomposes a camera position into distance, polar and azimuth.
func OrbitAngles(pos domain.Vec3) (distance, polar, azimuth float64) {
	distance = pos.Len()
	if distance == 0 {
		return 0, 0, 0
	}
	polar = math.Acos(clamp(pos.Y/distance, -1, 1))
	azimuth = math.Atan2(pos.X, pos.Z)
	return distance, polar, azimuth
}

// ClampOrbit moves pos onto the nearest allowed orbit position. The zero
// vector is returned unchanged.
func ClampOrbit(pos domain.Vec3, l OrbitLimits) domain.Vec3 {
	d, polar, az := OrbitAngles(pos)
	if d == 0 {
		return pos
	}
	d = clamp(d, l.MinDistance, l.MaxDistance)
	polar = clamp(polar, l.MinPolar, l.MaxPolar)
	return OrbitPosition(d, polar, az)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
