package cmd

import (
	"fmt"
	"os"

	"dem-manager/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "dem-manager",
	Short: "DEM Manager Service",
	Long: `DEM Manager keeps a bounded cache of SRTM elevation tiles and derives
elevation rasters, contour lines and hillshades from them.
Missing tiles are read from local directories or downloaded over HTTP or S3.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with the development config for readable CLI errors
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
