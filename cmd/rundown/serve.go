package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	apiv1 "github.com/hrygo/rundown/server/router/api/v1"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the mailbox ingestion schedule",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, p)
		if err != nil {
			return err
		}
		defer a.Close()

		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		e.Use(middleware.Recover())

		api := apiv1.NewAPIV1Service(p, a.chat, a.backend, a.ingester)
		api.RegisterRoutes(e)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			a.cache.Run(gctx)
			slog.Debug("session cache stopped", "stats", a.cache.Stats())
			return nil
		})
		g.Go(func() error {
			api.RunLimiterSweeper(gctx)
			return nil
		})
		if a.ingester != nil && p.IngestSchedule != "" {
			g.Go(func() error {
				return a.ingester.Run(gctx)
			})
		}
		g.Go(func() error {
			addr := fmt.Sprintf("%s:%d", p.Addr, p.Port)
			slog.Info("rundown server started", "addr", addr, "version", p.Version, "mode", p.Mode)
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		})

		err = g.Wait()
		slog.Info("rundown server stopped")
		return err
	},
}
