package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/globefolio/internal/core/domain"
)

var (
	markersFile string
	timeout     time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "globectl",
	Short: "Inspect and drive the Globefolio globe and library",
	Long: `globectl projects coordinates onto the globe, shows which markers
face a camera, follows the live frame stream and publishes podcast episodes.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&markersFile, "markers", "", "Marker catalog (default: globe.markers_file from config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(visibleCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(publishCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// parseVec reads "x,y,z".
func parseVec(s string) (domain.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return domain.Vec3{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var xyz [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.Vec3{}, fmt.Errorf("component %d of %q: %w", i+1, s, err)
		}
		xyz[i] = v
	}
	return domain.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func formatVec(v domain.Vec3) string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v.X, v.Y, v.Z)
}
