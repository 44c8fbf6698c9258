package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/samirrijal/globefolio/internal/adapters/catalog"
	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/core/usecases"
	"github.com/samirrijal/globefolio/internal/pkg/config"
)

var (
	visibleCamera   string
	visibleRotation float64
	visibleOnly     bool
)

var visibleCmd = &cobra.Command{
	Use:   "visible",
	Short: "List which marker labels face the camera",
	Example: `  globectl visible
  globectl visible --camera 0,0,-5 --rotation 1.57 --only`,
	Args: cobra.NoArgs,
	RunE: runVisible,
}

func init() {
	visibleCmd.Flags().StringVar(&visibleCamera, "camera", "", "Camera position as x,y,z (default: configured camera)")
	visibleCmd.Flags().Float64Var(&visibleRotation, "rotation", 0, "Globe rotation in radians")
	visibleCmd.Flags().BoolVar(&visibleOnly, "only", false, "Print front-facing markers only")
}

func runVisible(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load("globectl")
	if err != nil {
		return err
	}
	file := cfg.Globe.MarkersFile
	if markersFile != "" {
		file = markersFile
	}

	camera := cfg.Globe.Camera()
	if visibleCamera != "" {
		if camera, err = parseVec(visibleCamera); err != nil {
			return fmt.Errorf("camera: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	globe, err := usecases.NewGlobeFromCatalog(ctx, catalog.NewFileCatalog(file), cfg.Globe.Scene(), nil)
	if err != nil {
		return err
	}
	frame, err := globe.Frame(domain.ViewState{Camera: camera}, visibleRotation)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "camera %s  rotation %.4f  visible %d/%d\n\n",
		formatVec(frame.Camera), frame.Rotation, frame.Visible, len(frame.Placements))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tPOSITION\tFRONT")
	for _, p := range frame.Placements {
		if visibleOnly && !p.FrontFacing {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", p.Marker.ID, p.Marker.Label, formatVec(p.Position), p.FrontFacing)
	}
	return w.Flush()
}
