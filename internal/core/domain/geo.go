package domain

import "math"

// GeoPoint represents a geographic coordinate in degrees (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Valid reports whether the point lies inside [-90,90] x [-180,180].
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lon)
}

// Vec3 is a point or direction in globe scene space. Y is the rotation axis.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (a Vec3) Dot(b Vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

// Len returns the Euclidean norm.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns the unit vector in the direction of v.
// The zero vector normalizes to itself.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return Vec3{}
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// IsZero reports whether v has (numerically) no length.
func (v Vec3) IsZero() bool {
	return v.Len() < 1e-12
}

// IsFinite reports whether every component is a finite number.
func (v Vec3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// LabeledMarker is a named location pin on the globe.
type LabeledMarker struct {
	ID    string   `json:"id" yaml:"id"`
	Point GeoPoint `json:"point" yaml:"point"`
	Label string   `json:"label" yaml:"label"`
	Color string   `json:"color,omitempty" yaml:"color,omitempty"`
}

// ViewState is the camera position for one rendered frame.
type ViewState struct {
	Camera Vec3 `json:"camera"`
}

// MarkerPlacement is where a marker lands in one frame and whether its
// label should be shown.
type MarkerPlacement struct {
	Marker      LabeledMarker `json:"marker"`
	Position    Vec3          `json:"position"`
	FrontFacing bool          `json:"front_facing"`
}

// Frame is the per-frame output handed to the rendering surface.
type Frame struct {
	Sequence   uint64            `json:"sequence"`
	Rotation   float64           `json:"rotation"` // radians about +y
	Camera     Vec3              `json:"camera"`
	Placements []MarkerPlacement `json:"placements"`
	Visible    int               `json:"visible"`
}

// NearbyMarker is a marker with its great-circle distance from a reference.
type NearbyMarker struct {
	Marker     LabeledMarker `json:"marker"`
	DistanceKm float64       `json:"distance_km"`
}
