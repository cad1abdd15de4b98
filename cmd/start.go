package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dem-manager/core/loader"
	"dem-manager/core/logger"
	"dem-manager/core/middleware/auth"
	"dem-manager/core/middleware/rayid"
	"dem-manager/feature/elevation"
	"dem-manager/feature/tiles"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "dem-manager/docs/swagger"
)

// @title DEM Manager API
// @version 1.0
// @description Elevation queries, contour lines and hillshades over a cache of SRTM tiles.
// @host localhost:8080
// @BasePath /

const shutdownTimeout = 10 * time.Second

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the DEM manager server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngine(cmd.Context())
		if err != nil {
			return err
		}
		cfg, logg := e.cfg, e.logger
		zap.ReplaceGlobals(logg)

		if err := cfg.Server.Validate(); err != nil {
			return fmt.Errorf("invalid server configuration: %w", err)
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		mgr := loader.NewManager()
		mgr.Register(elevation.NewFeature(e.provider, cfg.Server, logg))
		mgr.Register(tiles.NewFeature(e.provider, cfg.Server, logg))

		app.Use(recover.New(recover.Config{EnableStackTrace: true}))

		// RayID first so every later log line carries it
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)

		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			e.Close(context.Background())
			return fmt.Errorf("failed to load features: %w", err)
		}

		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(ctx); err != nil {
			logg.Warn("HTTP server did not stop cleanly", zap.Error(err))
		}
		e.Close(ctx)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
