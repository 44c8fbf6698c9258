package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/pkg/geospatial"
)

var (
	projectLat    float64
	projectLon    float64
	projectRadius float64
	projectCamera string
)

var projectCmd = &cobra.Command{
	Use:   "project --lat <deg> --lon <deg>",
	Short: "Project a coordinate onto the globe",
	Long: `Print the scene position of a latitude/longitude on a sphere.

With --camera the command also reports whether the point faces that camera.`,
	Example: `  globectl project --lat 40.7128 --lon=-74.0060
  globectl project --lat 40.7128 --lon=-74.0060 --camera 0,0,5`,
	Args: cobra.NoArgs,
	RunE: runProject,
}

func init() {
	projectCmd.Flags().Float64Var(&projectLat, "lat", 0, "Latitude in degrees")
	projectCmd.Flags().Float64Var(&projectLon, "lon", 0, "Longitude in degrees")
	projectCmd.Flags().Float64Var(&projectRadius, "radius", 2.1, "Sphere radius")
	projectCmd.Flags().StringVar(&projectCamera, "camera", "", "Camera position as x,y,z")
}

func runProject(cmd *cobra.Command, _ []string) error {
	lat, lon := projectLat, projectLon
	if !(domain.GeoPoint{Lat: lat, Lon: lon}).Valid() {
		return fmt.Errorf("lat=%v lon=%v: %w", lat, lon, domain.ErrInvalidCoordinate)
	}
	if projectRadius <= 0 {
		return domain.ErrInvalidRadius
	}

	pos := geospatial.Project(lat, lon, projectRadius)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "position     %s\n", formatVec(pos))

	if projectCamera != "" {
		cam, err := parseVec(projectCamera)
		if err != nil {
			return fmt.Errorf("camera: %w", err)
		}
		fmt.Fprintf(out, "front-facing %t\n", geospatial.IsFrontFacing(pos, cam))
	}
	return nil
}
