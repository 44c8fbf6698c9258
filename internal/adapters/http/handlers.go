package http

import (
	"net"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/pkg/geospatial"
)

// ProjectResponse is the result of projecting one coordinate.
type ProjectResponse struct {
	Point       domain.GeoPoint `json:"point"`
	Radius      float64         `json:"radius"`
	Position    domain.Vec3     `json:"position"`
	FrontFacing *bool           `json:"front_facing,omitempty"`
}

// ListMarkersHandler returns the marker catalog.
func ListMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Globe.Markers())
	}
}

// GetMarkerHandler returns a single marker by ID.
func GetMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := deps.Globe.Marker(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(m)
	}
}

// NearestMarkersHandler returns the markers closest to a marker.
func NearestMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 5)
		nearby, err := deps.Globe.Nearest(c.Params("id"), limit)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(nearby)
	}
}

// ProjectHandler maps ?lat&lon[&radius] to scene space. When a viewpoint is
// given with cx, cy and cz the response also says whether the point faces it.
func ProjectHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, err := queryFloat(c, "lat")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lon, err := queryFloat(c, "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		radius := c.QueryFloat("radius", 0)

		pos, err := deps.Globe.Project(lat, lon, radius)
		if err != nil {
			return errFromDomain(c, err)
		}
		if radius == 0 {
			radius = deps.Globe.Config().MarkerRadius
		}

		resp := ProjectResponse{
			Point:    domain.GeoPoint{Lat: lat, Lon: lon},
			Radius:   radius,
			Position: pos,
		}
		if camera, ok, err := queryCamera(c); err != nil {
			return errBadRequest(c, err.Error())
		} else if ok {
			view, err := deps.Globe.ClampView(domain.ViewState{Camera: camera})
			if err != nil {
				return errFromDomain(c, err)
			}
			facing := geospatial.IsFrontFacing(pos, view.Camera)
			resp.FrontFacing = &facing
		}

		c.Set("Cache-Control", "public, max-age=86400")
		return c.JSON(resp)
	}
}

// FrameHandler computes one frame for ?cx&cy&cz and ?rotation (radians).
// The camera defaults to the configured one.
func FrameHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		camera, ok, err := queryCamera(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if !ok {
			camera = deps.Orbit.Camera
		}
		rotation := c.QueryFloat("rotation", 0)

		f, err := deps.Globe.Frame(domain.ViewState{Camera: camera}, rotation)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(f)
	}
}

// LocateHandler places a "you are here" marker for ?ip, or the caller's
// address when ip is omitted.
func LocateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("ip", c.IP())
		ip := net.ParseIP(raw)
		if ip == nil {
			return errBadRequest(c, "invalid ip address")
		}

		placement, err := deps.Globe.Locate(c.UserContext(), ip)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "private, max-age=3600")
		return c.JSON(placement)
	}
}

func queryFloat(c *fiber.Ctx, key string) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, key+" is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, key+" must be a number")
	}
	return v, nil
}

// queryCamera reads cx, cy and cz. ok is false when none are present.
func queryCamera(c *fiber.Ctx) (v domain.Vec3, ok bool, err error) {
	if c.Query("cx") == "" && c.Query("cy") == "" && c.Query("cz") == "" {
		return v, false, nil
	}
	for _, f := range []struct {
		key string
		dst *float64
	}{{"cx", &v.X}, {"cy", &v.Y}, {"cz", &v.Z}} {
		if *f.dst, err = queryFloat(c, f.key); err != nil {
			return v, false, err
		}
	}
	return v, true, nil
}
