package cmd

import (
	"context"
	"fmt"
	"strings"

	"dem-manager/core/fetch"
	"dem-manager/core/tile"
	"dem-manager/core/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// tilesCmd represents the tiles command
var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "Manage the local SRTM tile store",
}

var prefetchCmd = &cobra.Command{
	Use:   "prefetch",
	Short: "Load or download every tile of a bounding box",
	Long:  `Schedules every tile intersecting --bbox and waits until each one is loaded, missing or failed. Enable elevation auto download to fetch missing tiles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bbox, _ := cmd.Flags().GetString("bbox")
		b, err := utils.ParseBBox(bbox)
		if err != nil {
			return err
		}

		return withEngine(cmd, func(ctx context.Context, e *engine) error {
			ids := e.provider.CacheTiles(b)
			e.logger.Info("Prefetching tiles", zap.Int("count", len(ids)))

			err := waitFor(ctx, e.provider, func() bool {
				for _, id := range ids {
					if !e.provider.Tile(id).Status().IsTerminal() {
						return false
					}
				}
				return true
			})
			if err != nil {
				return err
			}

			counts := map[tile.Status]int{}
			fmt.Println("\n=== Prefetch ===")
			for _, id := range ids {
				t := e.provider.Tile(id)
				counts[t.Status()]++
				fmt.Printf("%s  %-6s %s\n", id, t.Type(), t.Status())
			}
			e.logger.Info("Prefetch completed",
				zap.Int("valid", counts[tile.StatusValid]),
				zap.Int("missing", counts[tile.StatusFileMissing]),
				zap.Int("invalid", counts[tile.StatusFileInvalid]),
				zap.Int("failed", counts[tile.StatusDownloadFailed]))
			return nil
		})
	},
}

var downloadsCmd = &cobra.Command{
	Use:   "downloads",
	Short: "List the download ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		if status != "" {
			if _, err := tile.ParseStatus(status); err != nil {
				return err
			}
		}

		return withEngine(cmd, func(ctx context.Context, e *engine) error {
			rows, err := e.provider.Downloads(ctx, status)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("No downloads recorded")
				return nil
			}
			for _, r := range rows {
				fmt.Printf("%s  %-6s %-20s attempts=%d %s\n", r.TileID, r.Source, r.Status, r.Attempts, r.LastError)
			}
			return nil
		})
	},
}

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "List the tiles available in an S3 download source",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("source")

		return withEngine(cmd, func(ctx context.Context, e *engine) error {
			s, ok := findSource(e.sources, name)
			if !ok {
				return fmt.Errorf("unknown source %q", name)
			}
			if !strings.HasPrefix(s.DownloadURL, "s3://") {
				return fmt.Errorf("source %s is not backed by object storage", s.Name)
			}
			ids, err := fetch.S3Transport{Client: e.store}.ListRemote(ctx, s.DownloadURL)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			e.logger.Info("Remote tiles listed", zap.String("source", s.Name), zap.Int("count", len(ids)))
			return nil
		})
	},
}

func init() {
	RootCmd.AddCommand(tilesCmd)
	tilesCmd.AddCommand(prefetchCmd, downloadsCmd, remoteCmd)

	tilesCmd.PersistentFlags().DurationVar(&queryTimeout, "timeout", queryTimeoutDefault, "How long to wait for tiles to load")

	prefetchCmd.Flags().String("bbox", "", "Bounding box west,south,east,north")
	_ = prefetchCmd.MarkFlagRequired("bbox")
	downloadsCmd.Flags().String("status", "", "Only list downloads in this status")
	remoteCmd.Flags().String("source", "SRTM3", "Source name (SRTM1, SRTM3)")
}
