package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"dem-manager/core/raster"
	"dem-manager/core/tile"
	"dem-manager/core/utils"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const queryTimeoutDefault = 2 * time.Minute

var (
	queryTimeout time.Duration
	queryBBox    string
	queryOut     string
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query elevation data without starting the server",
	Long:  `Loads (and, when enabled, downloads) the tiles a query needs and prints the result.`,
}

var elevationCmd = &cobra.Command{
	Use:   "elevation",
	Short: "Print the elevation at a coordinate",
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, _ := cmd.Flags().GetString("lat")
		lon, _ := cmd.Flags().GetString("lon")
		pt, err := utils.ParseLatLon(lat, lon)
		if err != nil {
			return err
		}

		return withEngine(cmd, func(ctx context.Context, e *engine) error {
			var sample tile.Sample
			err := waitFor(ctx, e.provider, func() bool {
				sample = e.provider.Elevation(pt)
				if sample.Valid {
					return true
				}
				return e.provider.Tile(tile.IDFor(pt.Lat(), pt.Lon())).Status().IsTerminal()
			})
			if err != nil {
				return err
			}
			if !sample.Valid {
				fmt.Printf("No elevation data at %.6f,%.6f\n", pt.Lat(), pt.Lon())
				return nil
			}
			fmt.Printf("%.6f,%.6f: %.1f m\n", sample.Coordinate.Lat(), sample.Coordinate.Lon(), sample.Elevation)
			return nil
		})
	},
}

var contoursCmd = &cobra.Command{
	Use:   "contours",
	Short: "Write contour lines of a bounding box as GeoJSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := utils.ParseBBox(queryBBox)
		if err != nil {
			return err
		}
		step, _ := cmd.Flags().GetInt("step")
		lower, _ := cmd.Flags().GetInt("lower")
		upper, _ := cmd.Flags().GetInt("upper")
		if step <= 0 {
			return fmt.Errorf("step must be positive, got %d", step)
		}

		return withEngine(cmd, func(ctx context.Context, e *engine) error {
			var sets []raster.ContourSet
			err := waitFor(ctx, e.provider, func() bool {
				var ok bool
				sets, ok = e.provider.ContourLines(b, step, lower, upper)
				return ok
			})
			if err != nil {
				return err
			}
			e.logger.Info("Contours extracted",
				zap.Int("isovalues", len(sets)),
				zap.Int("segments", raster.Count(sets)))

			data, err := json.MarshalIndent(raster.FeatureCollection(sets), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal GeoJSON: %w", err)
			}
			return writeOutput(queryOut, func(w io.Writer) error {
				_, err := w.Write(append(data, '\n'))
				return err
			})
		})
	},
}

var hillshadeCmd = &cobra.Command{
	Use:   "hillshade",
	Short: "Render a hillshade PNG of a bounding box",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := utils.ParseBBox(queryBBox)
		if err != nil {
			return err
		}
		if queryOut == "" {
			return fmt.Errorf("--out is required for PNG output")
		}
		altitude, _ := cmd.Flags().GetFloat64("altitude")
		azimuth, _ := cmd.Flags().GetFloat64("azimuth")
		perimeter, _ := cmd.Flags().GetBool("perimeter")
		width, _ := cmd.Flags().GetInt("width")

		return withEngine(cmd, func(ctx context.Context, e *engine) error {
			var img *raster.HillshadeImage
			var shadeErr error
			err := waitFor(ctx, e.provider, func() bool {
				var ok bool
				img, ok, shadeErr = e.provider.Hillshade(b, altitude, azimuth, perimeter)
				return ok || shadeErr != nil
			})
			if err != nil {
				return err
			}
			if shadeErr != nil {
				return shadeErr
			}
			if err := writeOutput(queryOut, func(w io.Writer) error { return img.EncodePNG(w, width) }); err != nil {
				return err
			}
			e.logger.Info("Hillshade written",
				zap.String("file", queryOut),
				zap.Int("width", img.Image.Bounds().Dx()),
				zap.Int("height", img.Image.Bounds().Dy()))
			return nil
		})
	},
}

var extremesCmd = &cobra.Command{
	Use:   "extremes",
	Short: "Print the lowest and highest points of a bounding box",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := utils.ParseBBox(queryBBox)
		if err != nil {
			return err
		}

		return withEngine(cmd, func(ctx context.Context, e *engine) error {
			var ext raster.Extremes
			err := waitFor(ctx, e.provider, func() bool {
				var ok bool
				ext, ok = e.provider.Extremes(b)
				return ok
			})
			if err != nil {
				return err
			}
			if !ext.Valid() {
				fmt.Println("No elevation data in", utils.FormatBBox(b))
				return nil
			}
			fmt.Println("\n=== Extremes ===")
			fmt.Printf("Lowest: %d m at %s\n", ext.Lowest, formatPoints(ext.LowestPoints))
			fmt.Printf("Highest: %d m at %s\n", ext.Highest, formatPoints(ext.HighestPoints))
			return nil
		})
	},
}

func formatPoints(pts []orb.Point) string {
	const shown = 5
	s := ""
	for i, p := range pts {
		if i == shown {
			s += fmt.Sprintf(" (+%d more)", len(pts)-shown)
			break
		}
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%.5f,%.5f", p.Lat(), p.Lon())
	}
	return s
}

// withEngine runs fn with a loaded engine and a context bounded by --timeout.
func withEngine(cmd *cobra.Command, fn func(ctx context.Context, e *engine) error) error {
	e, err := loadEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close(context.Background())

	ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
	defer cancel()
	return fn(ctx, e)
}

// writeOutput writes to path, or to stdout when path is empty.
func writeOutput(path string, write func(w io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	RootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(elevationCmd, contoursCmd, hillshadeCmd, extremesCmd)

	queryCmd.PersistentFlags().DurationVar(&queryTimeout, "timeout", queryTimeoutDefault, "How long to wait for tiles to load")

	elevationCmd.Flags().String("lat", "", "Latitude")
	elevationCmd.Flags().String("lon", "", "Longitude")
	_ = elevationCmd.MarkFlagRequired("lat")
	_ = elevationCmd.MarkFlagRequired("lon")

	for _, c := range []*cobra.Command{contoursCmd, hillshadeCmd, extremesCmd} {
		c.Flags().StringVar(&queryBBox, "bbox", "", "Bounding box west,south,east,north")
		_ = c.MarkFlagRequired("bbox")
	}
	for _, c := range []*cobra.Command{contoursCmd, hillshadeCmd} {
		c.Flags().StringVarP(&queryOut, "out", "o", "", "Output file (stdout when empty)")
	}

	contoursCmd.Flags().Int("step", 100, "Isoline spacing in meters")
	contoursCmd.Flags().Int("lower", -500, "Lower cutoff in meters")
	contoursCmd.Flags().Int("upper", 9000, "Upper cutoff in meters")

	hillshadeCmd.Flags().Float64("altitude", 45, "Sun altitude above the horizon in degrees")
	hillshadeCmd.Flags().Float64("azimuth", 315, "Sun azimuth clockwise from north in degrees")
	hillshadeCmd.Flags().Bool("perimeter", false, "Keep a transparent border so the image spans the box")
	hillshadeCmd.Flags().Int("width", 0, "Output width in pixels (native resolution when 0)")
}
