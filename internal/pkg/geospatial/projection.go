// Package geospatial maps geographic coordinates onto the globe scene and
// answers per-frame visibility questions for the render loop.
//
// Scene convention: the globe is centred at the origin, +y points at the
// north pole, and longitude -180 lies on the +x axis.
package geospatial

import (
	"math"

	"github.com/samirrijal/globefolio/internal/core/domain"
)

// FrontFacingThreshold is the minimum cosine between a surface normal and the
// view direction for a marker label to be shown. Labels hide slightly before
// the silhouette so billboards never render edge-on.
const FrontFacingThreshold = 0.2

// Project converts a latitude/longitude in degrees to a point on a sphere of
// the given radius. Inputs outside the geographic range are not rejected.
func Project(lat, lon, radius float64) domain.Vec3 {
	phi := (90 - lat) * math.Pi / 180
	theta := (lon + 180) * math.Pi / 180

	return domain.Vec3{
		X: -radius * math.Sin(phi) * math.Cos(theta),
		Y: radius * math.Cos(phi),
		Z: radius * math.Sin(phi) * math.Sin(theta),
	}
}

// ProjectPoint is Project for a GeoPoint.
func ProjectPoint(p domain.GeoPoint, radius float64) domain.Vec3 {
	return Project(p.Lat, p.Lon, radius)
}

// IsFrontFacing reports whether a surface position faces the viewpoint
// closely enough for its label to be visible. Both vectors must be non-zero;
// a zero vector is never front facing.
func IsFrontFacing(surface, viewpoint domain.Vec3) bool {
	return surface.Normalize().Dot(viewpoint.Normalize()) > FrontFacingThreshold
}

// RotateY rotates v by angle radians about the +y axis (right-handed).
func RotateY(v domain.Vec3, angle float64) domain.Vec3 {
	sin, cos := math.Sincos(angle)
	return domain.Vec3{
		X: v.X*cos + v.Z*sin,
		Y: v.Y,
		Z: -v.X*sin + v.Z*cos,
	}
}

// WrapAngle folds an angle into [0, 2π).
func WrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
