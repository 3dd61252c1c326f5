package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tbl-merger/core/loader"
	"tbl-merger/core/logger"
	"tbl-merger/core/middleware/auth"
	"tbl-merger/core/middleware/rayid"
	"tbl-merger/feature/history"
	"tbl-merger/feature/integrity"
	"tbl-merger/feature/merge"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var startWatch bool

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the merge API server",
	Long:  `Starts the HTTP server and initializes all enabled features. With --watch, mods are re-merged whenever they change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		logg := a.logger

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		mgr := loader.NewManager()
		mgr.Register(merge.NewFeature(a.service))
		mgr.Register(history.NewFeature(a.history, logg))
		mgr.Register(integrity.NewFeature(a.checks))

		// RayID first so every later log line carries it.
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

		if a.cfg.Server.IsProtected() {
			app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey}))
		} else {
			logg.Warn("API key not set, the API is unprotected")
		}

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		if startWatch {
			go func() {
				if err := runWatch(ctx, a); err != nil {
					logg.Error("Watch mode stopped", zap.Error(err))
				}
			}()
		}

		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("addr", a.cfg.Server.Addr()))
			errCh <- app.Listen(a.cfg.Server.Addr())
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logg.Info("Shutting down server...")
		return app.ShutdownWithContext(context.Background())
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
	startCmd.Flags().BoolVar(&startWatch, "watch", false, "Re-merge when files in the mods directory change")
}
