package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"service-map/core/config"
	"service-map/core/geo"
	"service-map/core/mapping"

	"github.com/spf13/cobra"
)

var (
	regionWidth  int
	regionHeight int
)

// regionCmd prints the region the map would fit around a set of points.
var regionCmd = &cobra.Command{
	Use:   "region <lat,lng> [lat,lng...]",
	Short: "Print the fitted region and zoom for a set of coordinates",
	Long: `Computes the region that covers every given coordinate with the configured
padding and minimum span, and the tile zoom at which it fits the viewport.

Example:
  region 40.41,-3.70 40.45,-3.68 --width 390 --height 844`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		coords := make([]mapping.Coordinate, 0, len(args))
		for _, arg := range args {
			c, err := parseCoordinate(arg)
			if err != nil {
				return err
			}
			coords = append(coords, c)
		}

		r, ok := geo.FitRegion(coords, geo.FitOptions{Padding: cfg.Map.Padding, MinSpan: cfg.Map.MinSpan})
		if !ok {
			return fmt.Errorf("no valid coordinates given")
		}

		width, height := cfg.Map.Width, cfg.Map.Height
		if regionWidth > 0 {
			width = regionWidth
		}
		if regionHeight > 0 {
			height = regionHeight
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "center:  %.6f,%.6f\n", r.Center.Latitude, r.Center.Longitude)
		fmt.Fprintf(out, "span:    %.6f x %.6f\n", r.LatitudeDelta, r.LongitudeDelta)
		fmt.Fprintf(out, "zoom:    %.0f (%dx%d)\n", geo.ZoomForRegion(r, width, height), width, height)
		return nil
	},
}

func init() {
	regionCmd.Flags().IntVar(&regionWidth, "width", 0, "Viewport width in pixels (defaults to config)")
	regionCmd.Flags().IntVar(&regionHeight, "height", 0, "Viewport height in pixels (defaults to config)")
	RootCmd.AddCommand(regionCmd)
}

// parseCoordinate reads a "lat,lng" pair.
func parseCoordinate(s string) (mapping.Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return mapping.Coordinate{}, fmt.Errorf("invalid coordinate %q: want lat,lng", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return mapping.Coordinate{}, fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return mapping.Coordinate{}, fmt.Errorf("invalid longitude in %q: %w", s, err)
	}
	c := mapping.Coordinate{Latitude: lat, Longitude: lng}
	if !c.Valid() {
		return mapping.Coordinate{}, fmt.Errorf("coordinate %q out of range", s)
	}
	return c, nil
}
